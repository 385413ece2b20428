package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// RiskRepository defines the interface for risk register storage. The
// residual columns are machine-written: UpdateResidual is the only write path
// for them, and it is only ever called by the recomputation engine inside the
// transaction that triggered it.
type RiskRepository interface {
	// Create persists a new risk.
	Create(ctx context.Context, risk *models.Risk) error

	// FindByID retrieves a risk within a tenant scope.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error)

	// FindByIDForUpdate retrieves a risk and locks its row for the duration
	// of the enclosing transaction, serializing concurrent recomputes.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error)

	// UpdateInherent rewrites the inherent scores of a risk.
	UpdateInherent(ctx context.Context, risk *models.Risk) error

	// UpdateResidual materializes a recomputation result.
	UpdateResidual(ctx context.Context, tenantID, id uuid.UUID, snapshot models.ResidualSnapshot) error

	// UpdateStatus moves the risk lifecycle status.
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RiskStatus) error

	// ListByTenant retrieves risks of one tenant, with pagination.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Risk, error)
}
