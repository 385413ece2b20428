// Package service implements the application use cases: it owns transaction
// boundaries, authorization at the use-case level, and the DTO conversion at
// the edge of the domain.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// ResidualCache is the read-model cache consulted by residual reads and
// invalidated after recomputing writes. A nil cache disables both sides.
type ResidualCache interface {
	Get(ctx context.Context, tenantID, riskID uuid.UUID) (*models.ResidualSnapshot, error)
	Set(ctx context.Context, tenantID, riskID uuid.UUID, snapshot models.ResidualSnapshot) error
	Invalidate(ctx context.Context, tenantID, riskID uuid.UUID)
}

// RiskAppService defines the risk register use cases.
type RiskAppService interface {
	Create(ctx context.Context, actor models.Actor, req *dto.CreateRiskRequest) (*dto.RiskResponse, error)
	Get(ctx context.Context, actor models.Actor, riskID string) (*dto.RiskResponse, error)
	List(ctx context.Context, actor models.Actor, limit, offset int) ([]*dto.RiskResponse, error)
	UpdateInherent(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateInherentRequest) (*dto.RiskResponse, error)
	UpdateStatus(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateRiskStatusRequest) error
	GetResidual(ctx context.Context, actor models.Actor, riskID string) (*dto.ResidualResponse, error)
}

type riskAppServiceImpl struct {
	tx        repository.TxManager
	risks     repository.RiskRepository
	allocator *service.SequenceAllocator
	recompute *service.RecomputeService
	cache     ResidualCache
	log       logger.Logger
}

// NewRiskAppService creates a new RiskAppService.
func NewRiskAppService(
	tx repository.TxManager,
	risks repository.RiskRepository,
	allocator *service.SequenceAllocator,
	recompute *service.RecomputeService,
	cache ResidualCache,
	log logger.Logger,
) RiskAppService {
	return &riskAppServiceImpl{
		tx:        tx,
		risks:     risks,
		allocator: allocator,
		recompute: recompute,
		cache:     cache,
		log:       log.WithComponent("RiskAppService"),
	}
}

// requireRole rejects actors below the minimum role for a use case.
func requireRole(actor models.Actor, minimum constants.Role) error {
	if actor.Role.Rank() < minimum.Rank() {
		return errors.ErrUnauthorized("acting role is below the minimum for this operation")
	}
	return nil
}

func parseEntityID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.ErrInvalidInput("malformed entity id")
	}
	return id, nil
}

// Create allocates a code and opens a new risk. The residual profile starts
// equal to the inherent one; with no controls attached there is nothing to
// recompute yet.
func (s *riskAppServiceImpl) Create(ctx context.Context, actor models.Actor, req *dto.CreateRiskRequest) (*dto.RiskResponse, error) {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	ownerID, err := parseEntityID(req.OwnerID)
	if err != nil {
		return nil, err
	}

	risk := &models.Risk{
		TenantID:           actor.TenantID,
		Title:              req.Title,
		Description:        req.Description,
		OwnerID:            ownerID,
		InherentLikelihood: req.InherentLikelihood,
		InherentImpact:     req.InherentImpact,
		ResidualLikelihood: req.InherentLikelihood,
		ResidualImpact:     req.InherentImpact,
		ResidualScore:      req.InherentLikelihood * req.InherentImpact,
	}
	if err := risk.ValidateInherent(); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		code, err := s.allocator.Allocate(txCtx, actor.TenantID, constants.EntityClassRisk, "")
		if err != nil {
			return err
		}
		risk.Code = code
		return s.risks.Create(txCtx, risk)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "Risk created",
		logger.String("tenant_id", actor.TenantID.String()),
		logger.String("risk_id", risk.ID.String()),
		logger.String("code", risk.Code),
	)
	return dto.RiskFromModel(risk), nil
}

// Get retrieves one risk in the actor's tenant.
func (s *riskAppServiceImpl) Get(ctx context.Context, actor models.Actor, riskID string) (*dto.RiskResponse, error) {
	id, err := parseEntityID(riskID)
	if err != nil {
		return nil, err
	}
	risk, err := s.risks.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return dto.RiskFromModel(risk), nil
}

// List retrieves the tenant's risk register, paginated.
func (s *riskAppServiceImpl) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*dto.RiskResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	risks, err := s.risks.ListByTenant(ctx, actor.TenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.RiskResponse, len(risks))
	for i := range risks {
		out[i] = dto.RiskFromModel(risks[i])
	}
	return out, nil
}

// UpdateInherent rewrites the inherent profile and recomputes the residual
// one inside the same transaction, so no reader ever sees the new inherent
// scores with the old residual ones.
func (s *riskAppServiceImpl) UpdateInherent(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateInherentRequest) (*dto.RiskResponse, error) {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(riskID)
	if err != nil {
		return nil, err
	}
	ownerID, err := parseEntityID(req.OwnerID)
	if err != nil {
		return nil, err
	}

	var updated *models.Risk
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		risk, err := s.risks.FindByIDForUpdate(txCtx, actor.TenantID, id)
		if err != nil {
			return err
		}
		risk.Title = req.Title
		risk.Description = req.Description
		risk.OwnerID = ownerID
		risk.InherentLikelihood = req.InherentLikelihood
		risk.InherentImpact = req.InherentImpact
		if err := risk.ValidateInherent(); err != nil {
			return err
		}
		if err := s.risks.UpdateInherent(txCtx, risk); err != nil {
			return err
		}
		snapshot, err := s.recompute.Recompute(txCtx, actor.TenantID, id)
		if err != nil {
			return err
		}
		risk.ResidualLikelihood = snapshot.Likelihood
		risk.ResidualImpact = snapshot.Impact
		risk.ResidualScore = snapshot.Score
		risk.LastRecomputedAt = &snapshot.RecomputedAt
		updated = risk
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, actor.TenantID, id)
	}
	return dto.RiskFromModel(updated), nil
}

// UpdateStatus moves the risk lifecycle status.
func (s *riskAppServiceImpl) UpdateStatus(ctx context.Context, actor models.Actor, riskID string, req *dto.UpdateRiskStatusRequest) error {
	if err := requireRole(actor, constants.RoleManager); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	id, err := parseEntityID(riskID)
	if err != nil {
		return err
	}
	return s.risks.UpdateStatus(ctx, actor.TenantID, id, models.RiskStatus(req.Status))
}

// GetResidual serves the residual read model, consulting the cache first and
// filling it on a miss.
func (s *riskAppServiceImpl) GetResidual(ctx context.Context, actor models.Actor, riskID string) (*dto.ResidualResponse, error) {
	id, err := parseEntityID(riskID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, actor.TenantID, id); err == nil && hit != nil {
			return residualResponse(riskID, *hit), nil
		}
	}

	risk, err := s.risks.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	snapshot := models.ResidualSnapshot{
		Likelihood: risk.ResidualLikelihood,
		Impact:     risk.ResidualImpact,
		Score:      risk.ResidualScore,
	}
	if risk.LastRecomputedAt != nil {
		snapshot.RecomputedAt = *risk.LastRecomputedAt
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, actor.TenantID, id, snapshot)
	}
	return residualResponse(riskID, snapshot), nil
}

func residualResponse(riskID string, snapshot models.ResidualSnapshot) *dto.ResidualResponse {
	return &dto.ResidualResponse{
		RiskID:       riskID,
		Likelihood:   snapshot.Likelihood,
		Impact:       snapshot.Impact,
		Score:        snapshot.Score,
		RecomputedAt: snapshot.RecomputedAt,
	}
}
