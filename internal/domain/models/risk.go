package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
)

// RiskStatus represents the lifecycle status of a risk register entry.
// Risks are never hard-deleted, only status-transitioned.
type RiskStatus string

const (
	// RiskStatusOpen indicates an active risk under management
	RiskStatusOpen RiskStatus = "open"

	// RiskStatusMitigated indicates a risk whose residual score is accepted
	RiskStatusMitigated RiskStatus = "mitigated"

	// RiskStatusRetired indicates a risk removed from active management
	RiskStatusRetired RiskStatus = "retired"
)

// Risk is a risk register entry. The inherent scores are set by the owner;
// the residual fields are materialized by the recomputation engine and are
// never written directly by callers.
type Risk struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	// Code is the human-readable identifier, unique per (tenant, class).
	Code string

	Title       string
	Description string
	OwnerID     uuid.UUID
	Status      RiskStatus

	// InherentLikelihood and InherentImpact are the pre-mitigation scores,
	// bounded 1..6.
	InherentLikelihood int
	InherentImpact     int

	// ResidualLikelihood, ResidualImpact and ResidualScore are derived from
	// the inherent scores and the attached controls. Invariants:
	// 1 <= residual_d <= inherent_d, residual_score = likelihood * impact.
	ResidualLikelihood int
	ResidualImpact     int
	ResidualScore      int

	// LastRecomputedAt records when the residual fields were last materialized.
	LastRecomputedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResidualSnapshot is the output of one recomputation run.
type ResidualSnapshot struct {
	Likelihood   int
	Impact       int
	Score        int
	RecomputedAt time.Time
}

// Inherent returns the inherent score for the given dimension.
func (r *Risk) Inherent(d constants.Dimension) int {
	if d == constants.DimensionImpact {
		return r.InherentImpact
	}
	return r.InherentLikelihood
}

// ValidateInherent checks the inherent score bounds.
func (r *Risk) ValidateInherent() error {
	for _, v := range []int{r.InherentLikelihood, r.InherentImpact} {
		if v < constants.ScoreDimensionMin || v > constants.ScoreDimensionMax {
			return errors.ErrInvalidInput("inherent scores must be within 1..6")
		}
	}
	return nil
}

// ValidateResidual checks the derived-field invariants against the inherent
// scores. A violation here is the fatal programming-error class: residual
// fields are machine-written and must never drift out of bounds.
func (r *Risk) ValidateResidual() error {
	if r.ResidualLikelihood < constants.ScoreDimensionMin || r.ResidualLikelihood > r.InherentLikelihood {
		return errors.ErrConstraintViolation("residual likelihood outside [1, inherent]")
	}
	if r.ResidualImpact < constants.ScoreDimensionMin || r.ResidualImpact > r.InherentImpact {
		return errors.ErrConstraintViolation("residual impact outside [1, inherent]")
	}
	if r.ResidualScore != r.ResidualLikelihood*r.ResidualImpact {
		return errors.ErrConstraintViolation("residual score is not the product of its dimensions")
	}
	return nil
}
