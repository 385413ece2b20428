package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// TransitionRecord is one immutable row of the audit ledger. Exactly one
// record exists per successful status or role change; the current value of a
// protected field is reconstructible by folding its history.
type TransitionRecord struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	// EntityType and EntityID address the subject entity. The foreign key on
	// the subject carries RESTRICT semantics: a subject with history cannot
	// be removed from under its ledger.
	EntityType string
	EntityID   uuid.UUID

	// Field names the protected column that changed.
	Field constants.ProtectedField

	FromValue string
	ToValue   string

	// ActorID and ActorRole capture who acted and the role they held at the
	// time of the action.
	ActorID   uuid.UUID
	ActorRole constants.Role

	// Reason is required for destructive transitions (suspend, reject).
	Reason string

	// IdempotencyKey, when supplied, makes a retried transition return the
	// prior outcome instead of double-logging. Unique per tenant.
	IdempotencyKey string

	// Signature is the HMAC-SHA256 of the record content, written at append
	// time so later tampering is detectable.
	Signature string

	CreatedAt time.Time
}

// EntityTypeUser is the subject type of the guarded user transitions.
const EntityTypeUser = "user"
