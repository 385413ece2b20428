package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// PolicyProvider resolves the effectiveness combination rule in effect for a
// tenant. Implementations cache; the default comes from configuration.
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID uuid.UUID) constants.CombinationPolicy
}

// RecomputeService materializes the residual fields of a risk from its
// inherent scores and the controls attached to it. Every control write and
// every inherent-score change calls Recompute synchronously, inside the same
// transaction, so readers always see residual fields consistent with the
// controls that produced them.
type RecomputeService struct {
	risks    repository.RiskRepository
	controls repository.ControlRepository
	policy   PolicyProvider
	log      logger.Logger
	metrics  Metrics
}

// NewRecomputeService creates a new RecomputeService.
func NewRecomputeService(
	risks repository.RiskRepository,
	controls repository.ControlRepository,
	policy PolicyProvider,
	log logger.Logger,
	metrics Metrics,
) *RecomputeService {
	return &RecomputeService{
		risks:    risks,
		controls: controls,
		policy:   policy,
		log:      log.WithComponent("RecomputeService"),
		metrics:  metrics,
	}
}

// Recompute rewrites the residual fields of one risk. Must run inside the
// transaction that changed the triggering control or inherent score: the risk
// row is locked for update first, so two recomputes on the same risk
// serialize and a stale run can never overwrite a newer one. Idempotent:
// the same inputs always materialize the same residual fields.
func (s *RecomputeService) Recompute(ctx context.Context, tenantID, riskID uuid.UUID) (models.ResidualSnapshot, error) {
	start := time.Now()

	risk, err := s.risks.FindByIDForUpdate(ctx, tenantID, riskID)
	if err != nil {
		s.metrics.RecordRecompute(tenantID.String(), false, time.Since(start))
		return models.ResidualSnapshot{}, err
	}

	controls, err := s.controls.ListByRisk(ctx, tenantID, riskID)
	if err != nil {
		s.metrics.RecordRecompute(tenantID.String(), false, time.Since(start))
		return models.ResidualSnapshot{}, err
	}

	policy := s.policy.PolicyFor(ctx, tenantID)
	snapshot := models.ResidualSnapshot{
		Likelihood:   s.residualFor(risk, controls, constants.DimensionLikelihood, policy),
		Impact:       s.residualFor(risk, controls, constants.DimensionImpact, policy),
		RecomputedAt: time.Now().UTC(),
	}
	snapshot.Score = snapshot.Likelihood * snapshot.Impact

	// Invariant check before anything is written; a breach here is a
	// programming error and must roll back the whole enclosing mutation.
	check := *risk
	check.ResidualLikelihood = snapshot.Likelihood
	check.ResidualImpact = snapshot.Impact
	check.ResidualScore = snapshot.Score
	if err := check.ValidateResidual(); err != nil {
		s.metrics.RecordRecompute(tenantID.String(), false, time.Since(start))
		return models.ResidualSnapshot{}, err
	}

	if err := s.risks.UpdateResidual(ctx, tenantID, riskID, snapshot); err != nil {
		s.metrics.RecordRecompute(tenantID.String(), false, time.Since(start))
		return models.ResidualSnapshot{}, err
	}

	s.metrics.RecordRecompute(tenantID.String(), true, time.Since(start))
	s.log.Debug(ctx, "Residual recomputed",
		logger.String("risk_id", riskID.String()),
		logger.Int("residual_likelihood", snapshot.Likelihood),
		logger.Int("residual_impact", snapshot.Impact),
		logger.Int("residual_score", snapshot.Score),
	)
	return snapshot, nil
}

// RecomputeForControl fans Recompute out over every risk the control is
// linked to. Called after any control write, still inside its transaction.
func (s *RecomputeService) RecomputeForControl(ctx context.Context, tenantID, controlID uuid.UUID) error {
	riskIDs, err := s.controls.ListRiskIDs(ctx, tenantID, controlID)
	if err != nil {
		return err
	}
	for _, riskID := range riskIDs {
		if _, err := s.Recompute(ctx, tenantID, riskID); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecomputeService) residualFor(risk *models.Risk, controls []*models.Control, d constants.Dimension, policy constants.CombinationPolicy) int {
	effs := QualifyingEffectiveness(controls, d)
	combined := CombineEffectiveness(effs, policy)
	return ResidualDimension(risk.Inherent(d), combined)
}
