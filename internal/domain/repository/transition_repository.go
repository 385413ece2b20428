package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// TransitionRepository defines the append-only write side of the audit
// ledger. There is no update or delete: ledger rows are immutable once
// written, and the storage layer enforces that.
type TransitionRepository interface {
	// Append writes one transition record. Called inside the same
	// transaction as the protected-field mutation it documents.
	Append(ctx context.Context, record *models.TransitionRecord) error

	// FindByIdempotencyKey retrieves a prior record for a retried
	// transition, or nil when the key is unseen.
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.TransitionRecord, error)

	// ListByEntity retrieves the full history of one subject entity, oldest
	// first, so the current value is reconstructible by folding.
	ListByEntity(ctx context.Context, tenantID, entityID uuid.UUID) ([]*models.TransitionRecord, error)
}

// LedgerFilter narrows a compliance read of the ledger.
type LedgerFilter struct {
	TenantID uuid.UUID
	EntityID *uuid.UUID
	ActorID  *uuid.UUID
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// TransitionLedgerReader is the read-only compliance view of the ledger,
// served outside the transactional path. Tenant administrators see their own
// tenant; platform-level entities are visible to the operator only.
type TransitionLedgerReader interface {
	// List retrieves ledger rows matching the filter, newest first.
	List(ctx context.Context, filter LedgerFilter) ([]*models.TransitionRecord, error)

	// Count returns the number of rows matching the filter.
	Count(ctx context.Context, filter LedgerFilter) (int64, error)
}
