// Package models defines the domain models for the Praxis governance service.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// Tenant represents an isolated customer organization. Every governed entity
// belongs to exactly one tenant; uniqueness and audit scopes always include
// the tenant id, so tenants never contend with each other.
type Tenant struct {
	// ID is the unique identifier for the tenant.
	ID uuid.UUID

	// Name is the display name of the tenant organization.
	Name string

	// Status indicates the current status of the tenant.
	Status constants.TenantStatus

	// CombinationPolicy optionally overrides the platform-wide rule for
	// combining control effectiveness. Empty means use the configured default.
	CombinationPolicy constants.CombinationPolicy

	// CreatedAt is the timestamp when the tenant was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp of the last update to the tenant.
	UpdatedAt time.Time

	// DeletedAt marks a soft-deleted tenant. Non-nil means deleted.
	DeletedAt *time.Time
}

// Active reports whether the tenant may accept writes.
func (t *Tenant) Active() bool {
	return t.Status == constants.TenantStatusActive && t.DeletedAt == nil
}
