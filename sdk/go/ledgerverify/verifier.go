// Package ledgerverify lets downstream compliance tooling verify the
// tamper-evidence signatures on exported transition events without importing
// the service internals. The package is self-contained on purpose: auditors
// consuming the Kafka export topic only need this file and the shared audit
// signing key.
package ledgerverify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingSignature = errors.New("event carries no signature")
	ErrEmptyKey         = errors.New("signing key is empty")
)

// TransitionEvent mirrors the JSON envelope published for every committed
// guarded transition.
type TransitionEvent struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Field      string    `json:"field"`
	FromValue  string    `json:"from_value"`
	ToValue    string    `json:"to_value"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	Signature  string    `json:"signature"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Verifier checks exported transition events against a shared HMAC key.
type Verifier struct {
	key []byte
}

// NewVerifier creates a Verifier for the given signing key.
func NewVerifier(key []byte) (*Verifier, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Verifier{key: key}, nil
}

// canonicalPayload joins the signed fields in the same fixed order the
// service signs them in. The idempotency key and timestamps are excluded
// from the signed content.
func canonicalPayload(event *TransitionEvent) string {
	return strings.Join([]string{
		event.TenantID,
		event.EntityType,
		event.EntityID,
		event.Field,
		event.FromValue,
		event.ToValue,
		event.ActorID,
		event.ActorRole,
		event.Reason,
	}, "\n")
}

// Verify reports whether the signature on an event matches its content.
func (v *Verifier) Verify(event *TransitionEvent) (bool, error) {
	if event.Signature == "" {
		return false, ErrMissingSignature
	}
	h := hmac.New(sha256.New, v.key)
	h.Write([]byte(canonicalPayload(event)))
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(event.Signature)), nil
}

// VerifyJSON decodes one exported event and verifies it in one call. It
// returns the decoded event so callers can inspect the content afterwards.
func (v *Verifier) VerifyJSON(raw []byte) (*TransitionEvent, bool, error) {
	var event TransitionEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, false, err
	}
	ok, err := v.Verify(&event)
	if err != nil {
		return nil, false, err
	}
	return &event, ok, nil
}
