package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// transitionRecordDBM is the database model for the audit ledger. The
// idempotency key is nullable so that records without one never collide on
// the unique index.
type transitionRecordDBM struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_transitions_tenant_idem,priority:1"`

	EntityType string    `gorm:"size:32;not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index"`

	// Subject pins the user row this record documents. RESTRICT keeps a
	// subject with history from being deleted out from under its ledger.
	Subject *userDBM `gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:RESTRICT"`

	Field     string `gorm:"size:32;not null"`
	FromValue string `gorm:"size:64;not null"`
	ToValue   string `gorm:"size:64;not null"`

	ActorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorRole string    `gorm:"size:32;not null"`

	Reason string `gorm:"type:text"`

	IdempotencyKey *string `gorm:"size:128;uniqueIndex:idx_transitions_tenant_idem,priority:2"`

	Signature string `gorm:"size:128;not null"`

	CreatedAt time.Time `gorm:"index"`
}

func (transitionRecordDBM) TableName() string {
	return "transition_records"
}

// BeforeUpdate makes the ledger append-only at the storage layer.
func (transitionRecordDBM) BeforeUpdate(tx *gorm.DB) error {
	return errors.ErrConstraintViolation("transition records are immutable")
}

// BeforeDelete makes the ledger append-only at the storage layer.
func (transitionRecordDBM) BeforeDelete(tx *gorm.DB) error {
	return errors.ErrConstraintViolation("transition records are immutable")
}

func (dbm *transitionRecordDBM) toDomain() *models.TransitionRecord {
	record := &models.TransitionRecord{
		ID:         dbm.ID,
		TenantID:   dbm.TenantID,
		EntityType: dbm.EntityType,
		EntityID:   dbm.EntityID,
		Field:      constants.ProtectedField(dbm.Field),
		FromValue:  dbm.FromValue,
		ToValue:    dbm.ToValue,
		ActorID:    dbm.ActorID,
		ActorRole:  constants.Role(dbm.ActorRole),
		Reason:     dbm.Reason,
		Signature:  dbm.Signature,
		CreatedAt:  dbm.CreatedAt,
	}
	if dbm.IdempotencyKey != nil {
		record.IdempotencyKey = *dbm.IdempotencyKey
	}
	return record
}

func transitionFromDomain(r *models.TransitionRecord) *transitionRecordDBM {
	dbm := &transitionRecordDBM{
		ID:         r.ID,
		TenantID:   r.TenantID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Field:      string(r.Field),
		FromValue:  r.FromValue,
		ToValue:    r.ToValue,
		ActorID:    r.ActorID,
		ActorRole:  string(r.ActorRole),
		Reason:     r.Reason,
		Signature:  r.Signature,
		CreatedAt:  r.CreatedAt,
	}
	if r.IdempotencyKey != "" {
		key := r.IdempotencyKey
		dbm.IdempotencyKey = &key
	}
	return dbm
}

// TransitionRepoImpl implements TransitionRepository using PostgreSQL.
type TransitionRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewTransitionRepository creates a new PostgreSQL-based transition
// repository.
func NewTransitionRepository(db *gorm.DB, log logger.Logger) repository.TransitionRepository {
	return &TransitionRepoImpl{db: db, log: log.WithComponent("TransitionRepository")}
}

// Append writes one transition record.
func (r *TransitionRepoImpl) Append(ctx context.Context, record *models.TransitionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(transitionFromDomain(record)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict("idempotency key already used").WithCause(err)
		}
		r.log.Error(ctx, "Failed to append transition record", err,
			logger.String("tenant_id", record.TenantID.String()),
			logger.String("entity_id", record.EntityID.String()),
		)
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// FindByIdempotencyKey retrieves a prior record for a retried transition,
// or nil when the key is unseen.
func (r *TransitionRepoImpl) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.TransitionRecord, error) {
	var dbm transitionRecordDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.ErrDatabaseOperation(err)
	}
	return dbm.toDomain(), nil
}

// ListByEntity retrieves the full history of one subject entity, oldest
// first.
func (r *TransitionRepoImpl) ListByEntity(ctx context.Context, tenantID, entityID uuid.UUID) ([]*models.TransitionRecord, error) {
	var dbms []transitionRecordDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND entity_id = ?", tenantID, entityID).
		Order("created_at, id").
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	records := make([]*models.TransitionRecord, len(dbms))
	for i := range dbms {
		records[i] = dbms[i].toDomain()
	}
	return records, nil
}
