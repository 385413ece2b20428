package dto

import (
	"time"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// StatusTransitionRequest moves a user along the status graph. The reason is
// mandatory for suspend and reject; the guard enforces that, the tag only
// bounds its size. An idempotency key makes a retried request return the
// original outcome.
type StatusTransitionRequest struct {
	ToStatus       string `json:"to_status" validate:"required,oneof=approved rejected suspended"`
	Reason         string `json:"reason" validate:"omitempty,max=1000"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,min=1,max=128"`
}

// RoleTransitionRequest changes a user's role.
type RoleTransitionRequest struct {
	ToRole         string `json:"to_role" validate:"required,oneof=viewer contributor manager admin operator"`
	Reason         string `json:"reason" validate:"omitempty,max=1000"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,min=1,max=128"`
}

// TransitionResponse is the read shape of one ledger record.
type TransitionResponse struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Field      string    `json:"field"`
	FromValue  string    `json:"from_value"`
	ToValue    string    `json:"to_value"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	Replayed   bool      `json:"replayed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LedgerQuery narrows a compliance read of the transition ledger.
type LedgerQuery struct {
	EntityID string `form:"entity_id" validate:"omitempty,uuid"`
	ActorID  string `form:"actor_id" validate:"omitempty,uuid"`
	Since    string `form:"since" validate:"omitempty"`
	Until    string `form:"until" validate:"omitempty"`
	Limit    int    `form:"limit" validate:"omitempty,gte=1,lte=500"`
	Offset   int    `form:"offset" validate:"omitempty,gte=0"`
}

// LedgerPage is one page of compliance results.
type LedgerPage struct {
	Records []*TransitionResponse `json:"records"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// TransitionFromModel converts a ledger record into its response shape.
func TransitionFromModel(r *models.TransitionRecord) *TransitionResponse {
	return &TransitionResponse{
		ID:         r.ID.String(),
		EntityType: r.EntityType,
		EntityID:   r.EntityID.String(),
		Field:      string(r.Field),
		FromValue:  r.FromValue,
		ToValue:    r.ToValue,
		ActorID:    r.ActorID.String(),
		ActorRole:  string(r.ActorRole),
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt,
	}
}
