package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// TenantRepository defines the interface for interacting with tenant storage.
type TenantRepository interface {
	// Save persists a new tenant.
	Save(ctx context.Context, tenant *models.Tenant) error

	// FindByID retrieves a tenant by its UUID.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	// FindAll retrieves all tenants, with pagination.
	FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error)

	// Update modifies an existing tenant record.
	Update(ctx context.Context, tenant *models.Tenant) error
}
