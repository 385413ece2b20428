package audit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

func testRecord() *models.TransitionRecord {
	return &models.TransitionRecord{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		EntityType: models.EntityTypeUser,
		EntityID:   uuid.New(),
		Field:      constants.FieldStatus,
		FromValue:  string(constants.UserStatusPending),
		ToValue:    string(constants.UserStatusApproved),
		ActorID:    uuid.New(),
		ActorRole:  constants.RoleManager,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestLedgerSigner_SignAndVerify(t *testing.T) {
	keys, err := NewStaticKeyProvider("test-secret")
	require.NoError(t, err)
	signer := NewLedgerSigner(keys)

	record := testRecord()
	sig, err := signer.Sign(record)
	require.NoError(t, err)
	require.NotEmpty(t, sig)
	record.Signature = sig

	ok, err := signer.Verify(record)
	require.NoError(t, err)
	assert.True(t, ok)

	// Any content change invalidates the signature.
	tampered := *record
	tampered.ToValue = string(constants.UserStatusSuspended)
	ok, err = signer.Verify(&tampered)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different key never verifies.
	otherKeys, err := NewStaticKeyProvider("other-secret")
	require.NoError(t, err)
	ok, err = NewLedgerSigner(otherKeys).Verify(record)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerSigner_IdempotencyKeyNotSigned(t *testing.T) {
	keys, err := NewStaticKeyProvider("test-secret")
	require.NoError(t, err)
	signer := NewLedgerSigner(keys)

	record := testRecord()
	first, err := signer.Sign(record)
	require.NoError(t, err)

	retried := *record
	retried.IdempotencyKey = "req-42"
	second, err := signer.Sign(&retried)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStaticKeyProvider_RejectsEmptySecret(t *testing.T) {
	_, err := NewStaticKeyProvider("")
	require.Error(t, err)
}

type capturingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (w *capturingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error { return nil }

func (w *capturingWriter) all() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

func TestTransitionExporter_PublishesEnvelope(t *testing.T) {
	writer := &capturingWriter{}
	exporter := newTransitionExporter(writer, logger.NewNoopLogger())

	record := testRecord()
	record.Reason = "policy breach"
	record.Signature = "sig"
	exporter.Export(context.Background(), record)

	require.NoError(t, exporter.Close())

	msgs := writer.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, record.TenantID.String(), string(msgs[0].Key))

	var event TransitionEvent
	require.NoError(t, json.Unmarshal(msgs[0].Value, &event))
	assert.Equal(t, record.ID.String(), event.ID)
	assert.Equal(t, "status", event.Field)
	assert.Equal(t, "approved", event.ToValue)
	assert.Equal(t, "policy breach", event.Reason)
	assert.Equal(t, "sig", event.Signature)
}

func TestTransitionExporter_CloseDrainsQueue(t *testing.T) {
	writer := &capturingWriter{}
	exporter := newTransitionExporter(writer, logger.NewNoopLogger())

	for i := 0; i < 10; i++ {
		exporter.Export(context.Background(), testRecord())
	}
	require.NoError(t, exporter.Close())

	assert.Len(t, writer.all(), 10)
}
