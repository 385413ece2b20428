package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// newTestDB opens an isolated in-memory database. SQLite allows a single
// writer, so the pool is pinned to one connection to keep concurrent tests
// free of busy errors.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func TestSequenceRepository_ReserveAndMax(t *testing.T) {
	db := newTestDB(t)
	repo := NewSequenceRepository(db, logger.NewNoopLogger())
	ctx := context.Background()
	tenantID := uuid.New()

	max, err := repo.MaxNumber(ctx, tenantID, constants.EntityClassRisk)
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	err = repo.Reserve(ctx, &models.SequenceReservation{
		TenantID: tenantID,
		Class:    constants.EntityClassRisk,
		Number:   1,
	})
	require.NoError(t, err)

	// Same number in the same scope loses the race.
	err = repo.Reserve(ctx, &models.SequenceReservation{
		TenantID: tenantID,
		Class:    constants.EntityClassRisk,
		Number:   1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConflict))

	// Same number in another class or tenant is a different scope.
	err = repo.Reserve(ctx, &models.SequenceReservation{
		TenantID: tenantID,
		Class:    constants.EntityClassControl,
		Number:   1,
	})
	require.NoError(t, err)
	err = repo.Reserve(ctx, &models.SequenceReservation{
		TenantID: uuid.New(),
		Class:    constants.EntityClassRisk,
		Number:   1,
	})
	require.NoError(t, err)

	max, err = repo.MaxNumber(ctx, tenantID, constants.EntityClassRisk)
	require.NoError(t, err)
	assert.Equal(t, int64(1), max)
}

func TestTenantRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewTenantRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	tenant := &models.Tenant{Name: "acme"}
	require.NoError(t, repo.Save(ctx, tenant))
	assert.NotEqual(t, uuid.Nil, tenant.ID)

	found, err := repo.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", found.Name)
	assert.Equal(t, constants.TenantStatusActive, found.Status)

	// Duplicate names collide.
	err = repo.Save(ctx, &models.Tenant{Name: "acme"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConflict))

	_, err = repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeNotFound))
}

func TestRiskRepository_CodeUniquePerTenant(t *testing.T) {
	db := newTestDB(t)
	repo := NewRiskRepository(db, logger.NewNoopLogger())
	ctx := context.Background()
	tenantID := uuid.New()

	risk := &models.Risk{
		TenantID:           tenantID,
		Code:               "RISK-001",
		Title:              "Vendor outage",
		InherentLikelihood: 4,
		InherentImpact:     5,
		ResidualLikelihood: 4,
		ResidualImpact:     5,
		ResidualScore:      20,
	}
	require.NoError(t, repo.Create(ctx, risk))

	dup := *risk
	dup.ID = uuid.Nil
	err := repo.Create(ctx, &dup)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConflict))

	// The same code in another tenant is fine.
	other := *risk
	other.ID = uuid.Nil
	other.TenantID = uuid.New()
	require.NoError(t, repo.Create(ctx, &other))
}

func TestRiskRepository_UpdateResidual(t *testing.T) {
	db := newTestDB(t)
	repo := NewRiskRepository(db, logger.NewNoopLogger())
	ctx := context.Background()
	tenantID := uuid.New()

	risk := &models.Risk{
		TenantID:           tenantID,
		Code:               "RISK-001",
		Title:              "Data breach",
		InherentLikelihood: 4,
		InherentImpact:     5,
		ResidualLikelihood: 4,
		ResidualImpact:     5,
		ResidualScore:      20,
	}
	require.NoError(t, repo.Create(ctx, risk))

	now := time.Now().UTC()
	err := repo.UpdateResidual(ctx, tenantID, risk.ID, models.ResidualSnapshot{
		Likelihood:   1,
		Impact:       5,
		Score:        5,
		RecomputedAt: now,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, tenantID, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.ResidualLikelihood)
	assert.Equal(t, 5, found.ResidualImpact)
	assert.Equal(t, 5, found.ResidualScore)
	require.NotNil(t, found.LastRecomputedAt)

	// Tenant scoping: a foreign tenant cannot address the row.
	err = repo.UpdateResidual(ctx, uuid.New(), risk.ID, models.ResidualSnapshot{
		Likelihood: 1, Impact: 1, Score: 1, RecomputedAt: now,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeNotFound))
}

func TestControlRepository_LinkLifecycle(t *testing.T) {
	db := newTestDB(t)
	controls := NewControlRepository(db, logger.NewNoopLogger())
	risks := NewRiskRepository(db, logger.NewNoopLogger())
	ctx := context.Background()
	tenantID := uuid.New()

	risk := &models.Risk{
		TenantID:           tenantID,
		Code:               "RISK-001",
		Title:              "Phishing",
		InherentLikelihood: 3,
		InherentImpact:     3,
		ResidualLikelihood: 3,
		ResidualImpact:     3,
		ResidualScore:      9,
	}
	require.NoError(t, risks.Create(ctx, risk))

	assessed := time.Now()
	control := &models.Control{
		TenantID:            tenantID,
		Code:                "CTRL-001",
		Name:                "Mail filtering",
		TargetDimension:     constants.DimensionLikelihood,
		DesignScore:         3,
		ImplementationScore: 3,
		MonitoringScore:     2,
		EvaluationScore:     2,
		AssessedAt:          &assessed,
	}
	require.NoError(t, controls.Create(ctx, control))

	require.NoError(t, controls.Link(ctx, tenantID, control.ID, risk.ID))
	// Linking twice is idempotent.
	require.NoError(t, controls.Link(ctx, tenantID, control.ID, risk.ID))

	linked, err := controls.ListByRisk(ctx, tenantID, risk.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, control.ID, linked[0].ID)

	riskIDs, err := controls.ListRiskIDs(ctx, tenantID, control.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{risk.ID}, riskIDs)

	// Tombstoning keeps the row, the code and the link.
	require.NoError(t, controls.SoftDelete(ctx, tenantID, control.ID))
	found, err := controls.FindByID(ctx, tenantID, control.ID)
	require.NoError(t, err)
	assert.True(t, found.Deleted)
	assert.False(t, found.Active())

	linked, err = controls.ListByRisk(ctx, tenantID, risk.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	// Unlinking removes only the association row.
	require.NoError(t, controls.Unlink(ctx, tenantID, control.ID, risk.ID))
	linked, err = controls.ListByRisk(ctx, tenantID, risk.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	_, err = controls.FindByID(ctx, tenantID, control.ID)
	require.NoError(t, err)
	_, err = risks.FindByID(ctx, tenantID, risk.ID)
	require.NoError(t, err)
}

func TestTxManager_RollbackUndoesEverything(t *testing.T) {
	db := newTestDB(t)
	tm := NewTxManager(db)
	tenants := NewTenantRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	boom := fmt.Errorf("boom")
	var createdID uuid.UUID
	err := tm.WithinTx(ctx, func(txCtx context.Context) error {
		tenant := &models.Tenant{Name: "doomed"}
		if err := tenants.Save(txCtx, tenant); err != nil {
			return err
		}
		createdID = tenant.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = tenants.FindByID(ctx, createdID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeNotFound))
}

func TestTxManager_NestedCallsJoin(t *testing.T) {
	db := newTestDB(t)
	tm := NewTxManager(db)
	tenants := NewTenantRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	err := tm.WithinTx(ctx, func(outer context.Context) error {
		return tm.WithinTx(outer, func(inner context.Context) error {
			return tenants.Save(inner, &models.Tenant{Name: "nested"})
		})
	})
	require.NoError(t, err)

	all, err := tenants.FindAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "nested", all[0].Name)
}
