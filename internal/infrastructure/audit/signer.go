// Package audit implements ledger signing and the downstream export of
// committed transitions.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// LedgerSigner computes the tamper-evidence signature stored on every
// transition record. The signature covers the canonical payload of the
// record, not its JSON form, so re-serialization can never invalidate it.
type LedgerSigner struct {
	keys SigningKeyProvider
}

// NewLedgerSigner creates a new LedgerSigner.
func NewLedgerSigner(keys SigningKeyProvider) *LedgerSigner {
	return &LedgerSigner{keys: keys}
}

// canonicalPayload joins the signed fields in a fixed order. The idempotency
// key is excluded: a retried transition replays the same signed content.
func canonicalPayload(record *models.TransitionRecord) string {
	return strings.Join([]string{
		record.TenantID.String(),
		record.EntityType,
		record.EntityID.String(),
		string(record.Field),
		record.FromValue,
		record.ToValue,
		record.ActorID.String(),
		string(record.ActorRole),
		record.Reason,
	}, "\n")
}

// Sign computes the record signature with the current signing key.
func (s *LedgerSigner) Sign(record *models.TransitionRecord) (string, error) {
	key, err := s.keys.SigningKey()
	if err != nil {
		return "", fmt.Errorf("resolving signing key: %w", err)
	}

	h := hmac.New(sha256.New, key)
	h.Write([]byte(canonicalPayload(record)))
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether the signature on a record matches its content.
func (s *LedgerSigner) Verify(record *models.TransitionRecord) (bool, error) {
	expected, err := s.Sign(record)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(record.Signature)), nil
}
