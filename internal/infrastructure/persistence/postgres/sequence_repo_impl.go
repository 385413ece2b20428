package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// sequenceReservationDBM is the database model for code-number reservations.
// The composite unique index is the whole concurrency story: two transactions
// reserving the same number race on the insert, one wins, the loser retries
// with a fresh candidate.
type sequenceReservationDBM struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seq_tenant_class_number,priority:1"`
	Class    string    `gorm:"size:32;not null;uniqueIndex:idx_seq_tenant_class_number,priority:2"`
	Number   int64     `gorm:"not null;uniqueIndex:idx_seq_tenant_class_number,priority:3"`

	CreatedAt time.Time
}

func (sequenceReservationDBM) TableName() string {
	return "sequence_reservations"
}

// SequenceRepoImpl implements SequenceRepository using PostgreSQL.
type SequenceRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewSequenceRepository creates a new PostgreSQL-based sequence repository.
func NewSequenceRepository(db *gorm.DB, log logger.Logger) repository.SequenceRepository {
	return &SequenceRepoImpl{db: db, log: log.WithComponent("SequenceRepository")}
}

// MaxNumber returns the highest reserved number in a (tenant, class) scope,
// or zero when the scope is empty.
func (r *SequenceRepoImpl) MaxNumber(ctx context.Context, tenantID uuid.UUID, class constants.EntityClass) (int64, error) {
	var max int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&sequenceReservationDBM{}).
		Where("tenant_id = ? AND class = ?", tenantID, class).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, errors.ErrDatabaseOperation(err)
	}
	return max, nil
}

// Reserve inserts a reservation. The insert runs with ON CONFLICT DO
// NOTHING: a lost race must surface as a conflict error without raising a
// constraint violation, because on Postgres a constraint violation aborts
// the enclosing transaction and the allocator retries inside that same
// transaction.
func (r *SequenceRepoImpl) Reserve(ctx context.Context, reservation *models.SequenceReservation) error {
	dbm := sequenceReservationDBM{
		ID:        uuid.New(),
		TenantID:  reservation.TenantID,
		Class:     string(reservation.Class),
		Number:    reservation.Number,
		CreatedAt: time.Now(),
	}
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "class"}, {Name: "number"}},
			DoNothing: true,
		}).
		Create(&dbm)
	if result.Error != nil {
		r.log.Error(ctx, "Failed to reserve sequence number", result.Error,
			logger.String("tenant_id", reservation.TenantID.String()),
			logger.String("class", string(reservation.Class)),
			logger.Int64("number", reservation.Number),
		)
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrConflict("sequence number already reserved")
	}
	reservation.CreatedAt = dbm.CreatedAt
	return nil
}
