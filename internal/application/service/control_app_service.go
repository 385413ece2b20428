package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// ControlAppService defines the control library use cases. Every mutation
// that can change residual credit recomputes the affected risks inside its
// own transaction and invalidates their cached read models after commit.
type ControlAppService interface {
	Create(ctx context.Context, actor models.Actor, req *dto.CreateControlRequest) (*dto.ControlResponse, error)
	Get(ctx context.Context, actor models.Actor, controlID string) (*dto.ControlResponse, error)
	Update(ctx context.Context, actor models.Actor, controlID string, req *dto.UpdateControlRequest) (*dto.ControlResponse, error)
	Assess(ctx context.Context, actor models.Actor, controlID string, req *dto.AssessControlRequest) (*dto.ControlResponse, error)
	Link(ctx context.Context, actor models.Actor, controlID string, req *dto.LinkControlRequest) error
	Unlink(ctx context.Context, actor models.Actor, controlID, riskID string) error
	Delete(ctx context.Context, actor models.Actor, controlID string) error
}

type controlAppServiceImpl struct {
	tx        repository.TxManager
	controls  repository.ControlRepository
	risks     repository.RiskRepository
	allocator *service.SequenceAllocator
	recompute *service.RecomputeService
	cache     ResidualCache
	log       logger.Logger
}

// NewControlAppService creates a new ControlAppService.
func NewControlAppService(
	tx repository.TxManager,
	controls repository.ControlRepository,
	risks repository.RiskRepository,
	allocator *service.SequenceAllocator,
	recompute *service.RecomputeService,
	cache ResidualCache,
	log logger.Logger,
) ControlAppService {
	return &controlAppServiceImpl{
		tx:        tx,
		controls:  controls,
		risks:     risks,
		allocator: allocator,
		recompute: recompute,
		cache:     cache,
		log:       log.WithComponent("ControlAppService"),
	}
}

// Create allocates a code and registers a new, not yet assessed control.
func (s *controlAppServiceImpl) Create(ctx context.Context, actor models.Actor, req *dto.CreateControlRequest) (*dto.ControlResponse, error) {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	control := &models.Control{
		TenantID:        actor.TenantID,
		Name:            req.Name,
		Description:     req.Description,
		TargetDimension: constants.Dimension(req.TargetDimension),
	}
	if err := control.ValidateScores(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		code, err := s.allocator.Allocate(txCtx, actor.TenantID, constants.EntityClassControl, "")
		if err != nil {
			return err
		}
		control.Code = code
		return s.controls.Create(txCtx, control)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "Control created",
		logger.String("tenant_id", actor.TenantID.String()),
		logger.String("control_id", control.ID.String()),
		logger.String("code", control.Code),
	)
	return dto.ControlFromModel(control), nil
}

// Get retrieves one control in the actor's tenant.
func (s *controlAppServiceImpl) Get(ctx context.Context, actor models.Actor, controlID string) (*dto.ControlResponse, error) {
	id, err := parseEntityID(controlID)
	if err != nil {
		return nil, err
	}
	control, err := s.controls.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return dto.ControlFromModel(control), nil
}

// Update rewrites the descriptive fields. Changing the target dimension
// moves the control's credit to another axis, so linked risks recompute.
func (s *controlAppServiceImpl) Update(ctx context.Context, actor models.Actor, controlID string, req *dto.UpdateControlRequest) (*dto.ControlResponse, error) {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(controlID)
	if err != nil {
		return nil, err
	}

	var updated *models.Control
	var touched []uuid.UUID
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		control, err := s.controls.FindByID(txCtx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !control.Active() {
			return errors.ErrConflict("control is deleted")
		}
		control.Name = req.Name
		control.Description = req.Description
		control.TargetDimension = constants.Dimension(req.TargetDimension)
		if err := control.ValidateScores(); err != nil {
			return err
		}
		if err := s.controls.Update(txCtx, control); err != nil {
			return err
		}
		updated = control
		touched, err = s.recomputeLinked(txCtx, actor.TenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, actor.TenantID, touched)
	return dto.ControlFromModel(updated), nil
}

// Assess records a full scoring of the control and recomputes every linked
// risk in the same transaction.
func (s *controlAppServiceImpl) Assess(ctx context.Context, actor models.Actor, controlID string, req *dto.AssessControlRequest) (*dto.ControlResponse, error) {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	id, err := parseEntityID(controlID)
	if err != nil {
		return nil, err
	}

	var assessed *models.Control
	var touched []uuid.UUID
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		control, err := s.controls.FindByID(txCtx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !control.Active() {
			return errors.ErrConflict("control is deleted")
		}
		now := time.Now().UTC()
		control.DesignScore = req.DesignScore
		control.ImplementationScore = req.ImplementationScore
		control.MonitoringScore = req.MonitoringScore
		control.EvaluationScore = req.EvaluationScore
		control.AssessedAt = &now
		if err := control.ValidateScores(); err != nil {
			return err
		}
		if err := s.controls.Update(txCtx, control); err != nil {
			return err
		}
		assessed = control
		touched, err = s.recomputeLinked(txCtx, actor.TenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, actor.TenantID, touched)
	return dto.ControlFromModel(assessed), nil
}

// Link attaches the control to a risk and recomputes it.
func (s *controlAppServiceImpl) Link(ctx context.Context, actor models.Actor, controlID string, req *dto.LinkControlRequest) error {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	cid, err := parseEntityID(controlID)
	if err != nil {
		return err
	}
	rid, err := parseEntityID(req.RiskID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		control, err := s.controls.FindByID(txCtx, actor.TenantID, cid)
		if err != nil {
			return err
		}
		if !control.Active() {
			return errors.ErrConflict("control is deleted")
		}
		if _, err := s.risks.FindByID(txCtx, actor.TenantID, rid); err != nil {
			return err
		}
		if err := s.controls.Link(txCtx, actor.TenantID, cid, rid); err != nil {
			return err
		}
		_, err = s.recompute.Recompute(txCtx, actor.TenantID, rid)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, actor.TenantID, []uuid.UUID{rid})
	return nil
}

// Unlink detaches the control from a risk and recomputes it; the risk loses
// whatever credit the control provided.
func (s *controlAppServiceImpl) Unlink(ctx context.Context, actor models.Actor, controlID, riskID string) error {
	if err := requireRole(actor, constants.RoleContributor); err != nil {
		return err
	}
	cid, err := parseEntityID(controlID)
	if err != nil {
		return err
	}
	rid, err := parseEntityID(riskID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.controls.Unlink(txCtx, actor.TenantID, cid, rid); err != nil {
			return err
		}
		_, err := s.recompute.Recompute(txCtx, actor.TenantID, rid)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, actor.TenantID, []uuid.UUID{rid})
	return nil
}

// Delete tombstones the control. Its code stays reserved, its links stay in
// place, and every linked risk immediately loses its credit.
func (s *controlAppServiceImpl) Delete(ctx context.Context, actor models.Actor, controlID string) error {
	if err := requireRole(actor, constants.RoleManager); err != nil {
		return err
	}
	id, err := parseEntityID(controlID)
	if err != nil {
		return err
	}

	var touched []uuid.UUID
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.controls.SoftDelete(txCtx, actor.TenantID, id); err != nil {
			return err
		}
		touched, err = s.recomputeLinked(txCtx, actor.TenantID, id)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, actor.TenantID, touched)
	s.log.Info(ctx, "Control tombstoned",
		logger.String("tenant_id", actor.TenantID.String()),
		logger.String("control_id", controlID),
	)
	return nil
}

// recomputeLinked recomputes every risk linked to a control and returns the
// affected ids for post-commit cache invalidation.
func (s *controlAppServiceImpl) recomputeLinked(ctx context.Context, tenantID, controlID uuid.UUID) ([]uuid.UUID, error) {
	riskIDs, err := s.controls.ListRiskIDs(ctx, tenantID, controlID)
	if err != nil {
		return nil, err
	}
	for _, riskID := range riskIDs {
		if _, err := s.recompute.Recompute(ctx, tenantID, riskID); err != nil {
			return nil, err
		}
	}
	return riskIDs, nil
}

func (s *controlAppServiceImpl) invalidate(ctx context.Context, tenantID uuid.UUID, riskIDs []uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, riskID := range riskIDs {
		s.cache.Invalidate(ctx, tenantID, riskID)
	}
}
