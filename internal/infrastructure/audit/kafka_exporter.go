package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// messageWriter is the slice of kafka.Writer the exporter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TransitionEvent is the export envelope published for every committed
// guarded transition. Downstream compliance tooling consumes these.
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

// TransitionExporter publishes committed transitions to Kafka. Publishing is
// asynchronous and strictly post-commit: the ledger row in the database is
// the system of record, so a lost export never loses audit data, and a
// failed export never rolls back a transition.
type TransitionExporter struct {
	writer messageWriter
	log    logger.Logger

	queue  chan kafka.Message
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewTransitionExporter creates an exporter around a configured Kafka writer
// and starts its publish loop.
func NewTransitionExporter(cfg config.KafkaConfig, log logger.Logger) *TransitionExporter {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TransitionTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return newTransitionExporter(writer, log)
}

func newTransitionExporter(writer messageWriter, log logger.Logger) *TransitionExporter {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	e := &TransitionExporter{
		writer: writer,
		log:    log.WithComponent("TransitionExporter"),
		queue:  make(chan kafka.Message, 256),
		group:  g,
		cancel: cancel,
	}
	g.Go(func() error {
		e.run(ctx)
		return nil
	})
	return e
}

// Export queues one committed transition for publication. Never blocks the
// caller: when the queue is full the event is dropped with a warning, the
// database ledger still holds it.
func (e *TransitionExporter) Export(ctx context.Context, record *models.TransitionRecord) {
	event := TransitionEvent{
		ID:         record.ID.String(),
		TenantID:   record.TenantID.String(),
		EntityType: record.EntityType,
		EntityID:   record.EntityID.String(),
		Field:      string(record.Field),
		FromValue:  record.FromValue,
		ToValue:    record.ToValue,
		ActorID:    record.ActorID.String(),
		ActorRole:  string(record.ActorRole),
		Reason:     record.Reason,
		Signature:  record.Signature,
		OccurredAt: record.CreatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		e.log.Error(ctx, "Failed to marshal transition event", err,
			logger.String("record_id", event.ID),
		)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.TenantID),
		Value: value,
	}
	select {
	case e.queue <- msg:
	default:
		e.log.Warn(ctx, "Transition export queue full, dropping event",
			logger.String("record_id", event.ID),
		)
	}
}

func (e *TransitionExporter) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return
		case msg := <-e.queue:
			e.publish(ctx, msg)
		}
	}
}

// drain publishes whatever is still queued at shutdown, with a bounded
// deadline so Close cannot hang on an unreachable broker.
func (e *TransitionExporter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case msg := <-e.queue:
			e.publish(ctx, msg)
		default:
			return
		}
	}
}

func (e *TransitionExporter) publish(ctx context.Context, msg kafka.Message) {
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		e.log.Error(ctx, "Failed to publish transition event", err)
	}
}

// Close stops the publish loop, drains the queue and closes the writer.
func (e *TransitionExporter) Close() error {
	e.cancel()
	_ = e.group.Wait()
	return e.writer.Close()
}
