package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// AuditAppService serves compliance reads of the transition ledger. Tenant
// administrators see their own tenant's ledger; the platform operator may
// query any tenant.
type AuditAppService interface {
	QueryLedger(ctx context.Context, actor models.Actor, query *dto.LedgerQuery) (*dto.LedgerPage, error)
	QueryTenantLedger(ctx context.Context, actor models.Actor, tenantID string, query *dto.LedgerQuery) (*dto.LedgerPage, error)
}

type auditAppServiceImpl struct {
	ledger repository.TransitionLedgerReader
	log    logger.Logger
}

// NewAuditAppService creates a new AuditAppService.
func NewAuditAppService(ledger repository.TransitionLedgerReader, log logger.Logger) AuditAppService {
	return &auditAppServiceImpl{
		ledger: ledger,
		log:    log.WithComponent("AuditAppService"),
	}
}

// QueryLedger reads the actor's own tenant ledger.
func (s *auditAppServiceImpl) QueryLedger(ctx context.Context, actor models.Actor, query *dto.LedgerQuery) (*dto.LedgerPage, error) {
	if err := requireRole(actor, constants.RoleAdmin); err != nil {
		return nil, err
	}
	return s.query(ctx, actor.TenantID, query)
}

// QueryTenantLedger reads a named tenant's ledger. Operator only, unless the
// tenant is the actor's own.
func (s *auditAppServiceImpl) QueryTenantLedger(ctx context.Context, actor models.Actor, tenantID string, query *dto.LedgerQuery) (*dto.LedgerPage, error) {
	target, err := parseEntityID(tenantID)
	if err != nil {
		return nil, err
	}
	if target == actor.TenantID {
		return s.QueryLedger(ctx, actor, query)
	}
	if !actor.IsOperator() {
		return nil, errors.ErrUnauthorized("only the platform operator reads foreign tenant ledgers")
	}
	return s.query(ctx, target, query)
}

func (s *auditAppServiceImpl) query(ctx context.Context, tenantID uuid.UUID, query *dto.LedgerQuery) (*dto.LedgerPage, error) {
	if err := dto.Validate(query); err != nil {
		return nil, err
	}

	filter, err := buildFilter(tenantID, query)
	if err != nil {
		return nil, err
	}

	records, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ledger.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.TransitionResponse, len(records))
	for i := range records {
		out[i] = dto.TransitionFromModel(records[i])
	}
	return &dto.LedgerPage{
		Records: out,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func buildFilter(tenantID uuid.UUID, query *dto.LedgerQuery) (repository.LedgerFilter, error) {
	filter := repository.LedgerFilter{
		TenantID: tenantID,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	if query.EntityID != "" {
		id, err := parseEntityID(query.EntityID)
		if err != nil {
			return filter, err
		}
		filter.EntityID = &id
	}
	if query.ActorID != "" {
		id, err := parseEntityID(query.ActorID)
		if err != nil {
			return filter, err
		}
		filter.ActorID = &id
	}
	if query.Since != "" {
		t, err := time.Parse(time.RFC3339, query.Since)
		if err != nil {
			return filter, errors.ErrInvalidInput("since must be RFC3339")
		}
		filter.Since = &t
	}
	if query.Until != "" {
		t, err := time.Parse(time.RFC3339, query.Until)
		if err != nil {
			return filter, errors.ErrInvalidInput("until must be RFC3339")
		}
		filter.Until = &t
	}
	return filter, nil
}
