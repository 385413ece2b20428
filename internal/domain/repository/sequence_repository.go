package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
)

// SequenceRepository defines the interface for code-number reservations.
// Correctness under concurrency comes from the storage-level unique
// constraint over (tenant_id, class, number), not from any process-local
// lock: Reserve surfaces a conflict error on a lost race and the allocator
// retries.
type SequenceRepository interface {
	// MaxNumber returns the highest reserved number in a (tenant, class)
	// scope, or zero when the scope is empty. Tombstoned entities keep
	// their reservations, so the max never moves backwards.
	MaxNumber(ctx context.Context, tenantID uuid.UUID, class constants.EntityClass) (int64, error)

	// Reserve inserts a reservation. A lost race returns an error with code
	// ErrCodeConflict; any other failure is a database error.
	Reserve(ctx context.Context, reservation *models.SequenceReservation) error
}
