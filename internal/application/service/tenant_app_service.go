package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// PolicyInvalidator drops a cached tenant policy after an update.
type PolicyInvalidator interface {
	Invalidate(tenantID uuid.UUID)
}

// TenantAppService defines the tenant administration use cases. All of them
// are operator-only.
type TenantAppService interface {
	Create(ctx context.Context, actor models.Actor, name string) (*models.Tenant, error)
	Get(ctx context.Context, actor models.Actor, tenantID string) (*models.Tenant, error)
	List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Tenant, error)
	SetCombinationPolicy(ctx context.Context, actor models.Actor, tenantID, policy string) error
}

type tenantAppServiceImpl struct {
	tenants     repository.TenantRepository
	invalidator PolicyInvalidator
	log         logger.Logger
}

// NewTenantAppService creates a new TenantAppService.
func NewTenantAppService(tenants repository.TenantRepository, invalidator PolicyInvalidator, log logger.Logger) TenantAppService {
	return &tenantAppServiceImpl{
		tenants:     tenants,
		invalidator: invalidator,
		log:         log.WithComponent("TenantAppService"),
	}
}

func requireOperator(actor models.Actor) error {
	if !actor.IsOperator() {
		return errors.ErrUnauthorized("tenant administration is operator-only")
	}
	return nil
}

// Create provisions a new tenant.
func (s *tenantAppServiceImpl) Create(ctx context.Context, actor models.Actor, name string) (*models.Tenant, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.ErrInvalidInput("tenant name is required")
	}

	tenant := &models.Tenant{Name: name}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Get retrieves one tenant.
func (s *tenantAppServiceImpl) Get(ctx context.Context, actor models.Actor, tenantID string) (*models.Tenant, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	id, err := parseEntityID(tenantID)
	if err != nil {
		return nil, err
	}
	return s.tenants.FindByID(ctx, id)
}

// List retrieves all tenants, paginated.
func (s *tenantAppServiceImpl) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Tenant, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.tenants.FindAll(ctx, limit, offset)
}

// SetCombinationPolicy overrides how the tenant combines control
// effectiveness, or clears the override with an empty policy.
func (s *tenantAppServiceImpl) SetCombinationPolicy(ctx context.Context, actor models.Actor, tenantID, policy string) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	id, err := parseEntityID(tenantID)
	if err != nil {
		return err
	}
	p := constants.CombinationPolicy(policy)
	if policy != "" && !p.Valid() {
		return errors.ErrInvalidInput("unknown combination policy")
	}

	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return err
	}
	tenant.CombinationPolicy = p
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(id)
	}
	s.log.Info(ctx, "Tenant combination policy updated",
		logger.String("tenant_id", tenantID),
		logger.String("policy", policy),
	)
	return nil
}
