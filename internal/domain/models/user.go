package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// User is the protected entity of the guarded transition subsystem. Its
// status and role columns change only through an authorized, audited
// transition; direct writes are rejected by the storage layer.
type User struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	Email       string
	DisplayName string

	// Status moves along the graph pending -> {approved, rejected},
	// approved <-> suspended; rejected is terminal.
	Status constants.UserStatus

	// Role is the position in the ordered authorization hierarchy.
	Role constants.Role

	// PlatformLevel marks entities owned by the super-tenant; their
	// transition history is visible to the platform operator only.
	PlatformLevel bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the authenticated identity performing an operation, supplied by
// the external tenant and actor context.
type Actor struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Role     constants.Role
}

// IsOperator reports whether the actor is the super-tenant platform operator.
func (a Actor) IsOperator() bool {
	return a.Role == constants.RoleOperator
}
