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

// tenantDBM is the database model for the tenants table.
type tenantDBM struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name              string    `gorm:"size:255;uniqueIndex;not null"`
	Status            string    `gorm:"size:32;not null"`
	CombinationPolicy string    `gorm:"size:32"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

func (tenantDBM) TableName() string {
	return "tenants"
}

func (dbm *tenantDBM) toDomain() *models.Tenant {
	return &models.Tenant{
		ID:                dbm.ID,
		Name:              dbm.Name,
		Status:            constants.TenantStatus(dbm.Status),
		CombinationPolicy: constants.CombinationPolicy(dbm.CombinationPolicy),
		CreatedAt:         dbm.CreatedAt,
		UpdatedAt:         dbm.UpdatedAt,
		DeletedAt:         dbm.DeletedAt,
	}
}

func tenantFromDomain(t *models.Tenant) *tenantDBM {
	return &tenantDBM{
		ID:                t.ID,
		Name:              t.Name,
		Status:            string(t.Status),
		CombinationPolicy: string(t.CombinationPolicy),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		DeletedAt:         t.DeletedAt,
	}
}

// TenantRepoImpl implements TenantRepository using PostgreSQL.
type TenantRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewTenantRepository creates a new PostgreSQL-based tenant repository.
func NewTenantRepository(db *gorm.DB, log logger.Logger) repository.TenantRepository {
	return &TenantRepoImpl{db: db, log: log.WithComponent("TenantRepository")}
}

// Save creates a new tenant.
func (r *TenantRepoImpl) Save(ctx context.Context, tenant *models.Tenant) error {
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.Status == "" {
		tenant.Status = constants.TenantStatusActive
	}

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(tenantFromDomain(tenant)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict("tenant name already in use").WithCause(err)
		}
		r.log.Error(ctx, "Failed to create tenant", err, logger.String("tenant_name", tenant.Name))
		return errors.ErrDatabaseOperation(err)
	}

	r.log.Info(ctx, "Tenant created",
		logger.String("tenant_id", tenant.ID.String()),
		logger.String("tenant_name", tenant.Name),
	)
	return nil
}

// FindByID retrieves a tenant by its unique identifier.
func (r *TenantRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var dbm tenantDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("tenant", id.String())
		}
		return nil, errors.ErrDatabaseOperation(err)
	}
	return dbm.toDomain(), nil
}

// FindAll retrieves all tenants, with pagination.
func (r *TenantRepoImpl) FindAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	var dbms []tenantDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Order("created_at").
		Limit(limit).
		Offset(offset).
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	tenants := make([]*models.Tenant, len(dbms))
	for i := range dbms {
		tenants[i] = dbms[i].toDomain()
	}
	return tenants, nil
}

// Update modifies an existing tenant record.
func (r *TenantRepoImpl) Update(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&tenantDBM{}).
		Where("id = ?", tenant.ID).
		Updates(map[string]interface{}{
			"name":               tenant.Name,
			"status":             string(tenant.Status),
			"combination_policy": string(tenant.CombinationPolicy),
			"updated_at":         tenant.UpdatedAt,
		})
	if result.Error != nil {
		r.log.Error(ctx, "Failed to update tenant", result.Error, logger.String("tenant_id", tenant.ID.String()))
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("tenant", tenant.ID.String())
	}
	return nil
}
