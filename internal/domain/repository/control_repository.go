package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// ControlRepository defines the interface for control storage and the
// non-owning risk/control association. Deleting a risk never cascades into
// controls: the association row alone is removed, and controls themselves are
// only tombstoned.
type ControlRepository interface {
	// Create persists a new control.
	Create(ctx context.Context, control *models.Control) error

	// Update rewrites the mutable fields of a control, including its scores.
	Update(ctx context.Context, control *models.Control) error

	// FindByID retrieves a control within a tenant scope, tombstoned or not.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Control, error)

	// SoftDelete sets the tombstone flag. The row and its code survive.
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error

	// Link attaches a control to a risk. Idempotent.
	Link(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error

	// Unlink detaches a control from a risk without touching either row.
	Unlink(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error

	// ListByRisk retrieves every control linked to a risk, including
	// tombstoned ones so callers can filter on Active themselves.
	ListByRisk(ctx context.Context, tenantID, riskID uuid.UUID) ([]*models.Control, error)

	// ListRiskIDs retrieves the risks a control is linked to. The
	// recomputation engine fans out over this set after a control write.
	ListRiskIDs(ctx context.Context, tenantID, controlID uuid.UUID) ([]uuid.UUID, error)
}
