package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
)

// Control is a mitigating control. Controls link to risks through a
// non-owning many-to-many association: a control outlives any risk it was
// attached to, and is only ever tombstoned, never physically removed by the
// normal path.
type Control struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	// Code is the human-readable identifier, unique per (tenant, class).
	Code string

	Name        string
	Description string

	// TargetDimension is the risk axis this control mitigates.
	TargetDimension constants.Dimension

	// The four sub-scores, each bounded 0..3. A zero design or implementation
	// score voids the control entirely: paper controls earn no credit.
	DesignScore         int
	ImplementationScore int
	MonitoringScore     int
	EvaluationScore     int

	// AssessedAt marks the control as fully scored. Unassessed controls never
	// qualify for residual credit.
	AssessedAt *time.Time

	// Deleted is the tombstone flag. Tombstoned controls are hidden from
	// normal queries but keep their row and their code reservation.
	Deleted   bool
	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the control is live (not tombstoned).
func (c *Control) Active() bool {
	return !c.Deleted
}

// FullyScored reports whether the control has a complete assessment.
func (c *Control) FullyScored() bool {
	return c.AssessedAt != nil
}

// Effectiveness returns the 0..1 quality measure of this control.
// Zero design or implementation voids the control.
func (c *Control) Effectiveness() float64 {
	if c.DesignScore == 0 || c.ImplementationScore == 0 {
		return 0
	}
	sum := c.DesignScore + c.ImplementationScore + c.MonitoringScore + c.EvaluationScore
	return float64(sum) / float64(constants.ControlSubScoreTotal)
}

// Qualifies reports whether the control earns residual credit for dimension d.
func (c *Control) Qualifies(d constants.Dimension) bool {
	return c.Active() && c.FullyScored() && c.TargetDimension == d
}

// ValidateScores checks the sub-score bounds and the target dimension.
func (c *Control) ValidateScores() error {
	if !c.TargetDimension.Valid() {
		return errors.ErrInvalidInput("control target dimension must be likelihood or impact")
	}
	for _, v := range []int{c.DesignScore, c.ImplementationScore, c.MonitoringScore, c.EvaluationScore} {
		if v < constants.ControlSubScoreMin || v > constants.ControlSubScoreMax {
			return errors.ErrInvalidInput("control sub-scores must be within 0..3")
		}
	}
	return nil
}
