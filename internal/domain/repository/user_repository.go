package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
)

// UserRepository defines the interface for protected-entity storage. The
// status and role columns are guarded at the storage layer: a generic Update
// that touches them is rejected, and ApplyTransition is the only write path.
type UserRepository interface {
	// Create persists a new user in pending status.
	Create(ctx context.Context, user *models.User) error

	// FindByID retrieves a user within a tenant scope.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)

	// FindByIDForUpdate retrieves a user and locks its row for the duration
	// of the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)

	// Update rewrites unprotected fields only. Changes to status or role
	// through this method fail with a constraint violation.
	Update(ctx context.Context, user *models.User) error

	// ApplyTransition writes a new value into a protected column. Only the
	// guarded transition subsystem calls this, inside the same transaction
	// as the ledger append.
	ApplyTransition(ctx context.Context, tenantID, id uuid.UUID, field constants.ProtectedField, newValue string) error
}
