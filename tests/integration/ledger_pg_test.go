//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	pginfra "github.com/praxisgrc/praxis/internal/infrastructure/persistence/postgres"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// newSubject persists a user row for ledger records to reference; the
// subject foreign key is enforced on Postgres.
func newSubject(t *testing.T, db *gorm.DB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()
	users := pginfra.NewUserRepository(db, logger.NewNoopLogger())
	user := &models.User{
		TenantID: tenantID,
		Email:    uuid.NewString() + "@praxis.test",
		Role:     constants.RoleViewer,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user.ID
}

func ledgerRecord(tenantID, entityID uuid.UUID, key string) *models.TransitionRecord {
	return &models.TransitionRecord{
		TenantID:       tenantID,
		EntityType:     "user",
		EntityID:       entityID,
		Field:          constants.FieldStatus,
		FromValue:      "pending",
		ToValue:        "approved",
		ActorID:        uuid.New(),
		ActorRole:      constants.RoleManager,
		IdempotencyKey: key,
		Signature:      "sig",
	}
}

func TestTransitionLedger_AppendOnly(t *testing.T) {
	db, _ := startPostgres(t)
	ctx := context.Background()
	log := logger.NewNoopLogger()
	repo := pginfra.NewTransitionRepository(db, log)

	tenantID := uuid.New()
	entityID := newSubject(t, db, tenantID)
	record := ledgerRecord(tenantID, entityID, "")
	record.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Append(ctx, record))
	assert.NotEqual(t, uuid.Nil, record.ID)

	second := ledgerRecord(tenantID, entityID, "")
	second.FromValue = "approved"
	second.ToValue = "suspended"
	require.NoError(t, repo.Append(ctx, second))

	// History comes back oldest first so the current value is the fold of
	// the ledger.
	history, err := repo.ListByEntity(ctx, tenantID, entityID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, record.ID, history[0].ID)
	assert.Equal(t, "sig", history[0].Signature)
	assert.Equal(t, "suspended", history[1].ToValue)
}

// A subject with history cannot be removed from under its ledger, even by a
// raw row delete: the subject foreign key carries RESTRICT semantics.
func TestTransitionLedger_SubjectDeleteRestricted(t *testing.T) {
	db, _ := startPostgres(t)
	ctx := context.Background()
	repo := pginfra.NewTransitionRepository(db, logger.NewNoopLogger())

	tenantID := uuid.New()
	entityID := newSubject(t, db, tenantID)
	require.NoError(t, repo.Append(ctx, ledgerRecord(tenantID, entityID, "")))

	err := db.Exec("DELETE FROM users WHERE id = ?", entityID).Error
	require.Error(t, err, "subject delete must be rejected while ledger rows reference it")

	var count int64
	require.NoError(t, db.Table("users").Where("id = ?", entityID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// A subject without history is unconstrained.
	freeID := newSubject(t, db, tenantID)
	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", freeID).Error)
}

func TestTransitionLedger_IdempotencyKeyUniquePerTenant(t *testing.T) {
	db, _ := startPostgres(t)
	ctx := context.Background()
	log := logger.NewNoopLogger()
	repo := pginfra.NewTransitionRepository(db, log)

	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, repo.Append(ctx, ledgerRecord(tenantA, newSubject(t, db, tenantA), "retry-1")))

	// Same key in the same tenant collides.
	err := repo.Append(ctx, ledgerRecord(tenantA, newSubject(t, db, tenantA), "retry-1"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConflict))

	// Same key in another tenant is a different scope.
	require.NoError(t, repo.Append(ctx, ledgerRecord(tenantB, newSubject(t, db, tenantB), "retry-1")))

	// Records without a key never collide with each other.
	require.NoError(t, repo.Append(ctx, ledgerRecord(tenantA, newSubject(t, db, tenantA), "")))
	require.NoError(t, repo.Append(ctx, ledgerRecord(tenantA, newSubject(t, db, tenantA), "")))

	found, err := repo.FindByIdempotencyKey(ctx, tenantA, "retry-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "approved", found.ToValue)

	missing, err := repo.FindByIdempotencyKey(ctx, tenantA, "unseen")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedgerReader_FiltersAndOrders(t *testing.T) {
	db, connStr := startPostgres(t)
	ctx := context.Background()
	log := logger.NewNoopLogger()
	repo := pginfra.NewTransitionRepository(db, log)

	pool, err := pginfra.NewLedgerPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	reader := pginfra.NewLedgerReader(pool)

	tenantID := uuid.New()
	entityID := newSubject(t, db, tenantID)
	first := ledgerRecord(tenantID, entityID, "")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Append(ctx, first))

	second := ledgerRecord(tenantID, entityID, "")
	second.FromValue = "approved"
	second.ToValue = "suspended"
	require.NoError(t, repo.Append(ctx, second))

	// A different tenant's record stays invisible.
	otherTenant := uuid.New()
	require.NoError(t, repo.Append(ctx, ledgerRecord(otherTenant, newSubject(t, db, otherTenant), "")))

	filter := repository.LedgerFilter{TenantID: tenantID, Limit: 10}
	rows, err := reader.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "suspended", rows[0].ToValue, "newest first")

	count, err := reader.Count(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	since := time.Now().Add(-10 * time.Minute)
	filter.Since = &since
	recent, err := reader.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)
}
