package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// SequenceReservation is one reserved code number in a (tenant, class) scope.
// The storage layer enforces uniqueness over all three columns; the allocator
// turns uniqueness violations into bounded retries. Reservations are never
// released: soft-deleted entities keep their number, and codes are never
// reused.
type SequenceReservation struct {
	TenantID uuid.UUID
	Class    constants.EntityClass
	Number   int64

	CreatedAt time.Time
}
