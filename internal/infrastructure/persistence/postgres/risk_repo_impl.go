package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// riskDBM is the database model for the risks table. The residual columns
// are written only through UpdateResidual.
type riskDBM struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_risks_tenant_code,priority:1"`
	Code     string    `gorm:"size:64;not null;uniqueIndex:idx_risks_tenant_code,priority:2"`

	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	OwnerID     uuid.UUID
	Status      string `gorm:"size:32;not null;index"`

	InherentLikelihood int `gorm:"not null"`
	InherentImpact     int `gorm:"not null"`

	ResidualLikelihood int `gorm:"not null"`
	ResidualImpact     int `gorm:"not null"`
	ResidualScore      int `gorm:"not null"`

	LastRecomputedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (riskDBM) TableName() string {
	return "risks"
}

func (dbm *riskDBM) toDomain() *models.Risk {
	return &models.Risk{
		ID:                 dbm.ID,
		TenantID:           dbm.TenantID,
		Code:               dbm.Code,
		Title:              dbm.Title,
		Description:        dbm.Description,
		OwnerID:            dbm.OwnerID,
		Status:             models.RiskStatus(dbm.Status),
		InherentLikelihood: dbm.InherentLikelihood,
		InherentImpact:     dbm.InherentImpact,
		ResidualLikelihood: dbm.ResidualLikelihood,
		ResidualImpact:     dbm.ResidualImpact,
		ResidualScore:      dbm.ResidualScore,
		LastRecomputedAt:   dbm.LastRecomputedAt,
		CreatedAt:          dbm.CreatedAt,
		UpdatedAt:          dbm.UpdatedAt,
	}
}

func riskFromDomain(r *models.Risk) *riskDBM {
	return &riskDBM{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		Code:               r.Code,
		Title:              r.Title,
		Description:        r.Description,
		OwnerID:            r.OwnerID,
		Status:             string(r.Status),
		InherentLikelihood: r.InherentLikelihood,
		InherentImpact:     r.InherentImpact,
		ResidualLikelihood: r.ResidualLikelihood,
		ResidualImpact:     r.ResidualImpact,
		ResidualScore:      r.ResidualScore,
		LastRecomputedAt:   r.LastRecomputedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// RiskRepoImpl implements RiskRepository using PostgreSQL.
type RiskRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewRiskRepository creates a new PostgreSQL-based risk repository.
func NewRiskRepository(db *gorm.DB, log logger.Logger) repository.RiskRepository {
	return &RiskRepoImpl{db: db, log: log.WithComponent("RiskRepository")}
}

// Create persists a new risk.
func (r *RiskRepoImpl) Create(ctx context.Context, risk *models.Risk) error {
	now := time.Now()
	risk.CreatedAt = now
	risk.UpdatedAt = now
	if risk.ID == uuid.Nil {
		risk.ID = uuid.New()
	}
	if risk.Status == "" {
		risk.Status = models.RiskStatusOpen
	}

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(riskFromDomain(risk)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict("risk code already reserved").WithCause(err)
		}
		r.log.Error(ctx, "Failed to create risk", err,
			logger.String("tenant_id", risk.TenantID.String()),
			logger.String("code", risk.Code),
		)
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// FindByID retrieves a risk within a tenant scope.
func (r *RiskRepoImpl) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error) {
	return r.find(dbFromContext(ctx, r.db).WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate retrieves a risk and locks its row for the duration of
// the enclosing transaction.
func (r *RiskRepoImpl) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Risk, error) {
	tx := withUpdateLock(dbFromContext(ctx, r.db).WithContext(ctx))
	return r.find(tx, tenantID, id)
}

func (r *RiskRepoImpl) find(tx *gorm.DB, tenantID, id uuid.UUID) (*models.Risk, error) {
	var dbm riskDBM
	err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("risk", id.String())
		}
		return nil, errors.ErrDatabaseOperation(err)
	}
	return dbm.toDomain(), nil
}

// UpdateInherent rewrites the owner-editable fields of a risk.
func (r *RiskRepoImpl) UpdateInherent(ctx context.Context, risk *models.Risk) error {
	risk.UpdatedAt = time.Now()
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&riskDBM{}).
		Where("tenant_id = ? AND id = ?", risk.TenantID, risk.ID).
		Updates(map[string]interface{}{
			"title":               risk.Title,
			"description":         risk.Description,
			"owner_id":            risk.OwnerID,
			"inherent_likelihood": risk.InherentLikelihood,
			"inherent_impact":     risk.InherentImpact,
			"updated_at":          risk.UpdatedAt,
		})
	if result.Error != nil {
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("risk", risk.ID.String())
	}
	return nil
}

// UpdateResidual materializes a recomputation result.
func (r *RiskRepoImpl) UpdateResidual(ctx context.Context, tenantID, id uuid.UUID, snapshot models.ResidualSnapshot) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&riskDBM{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"residual_likelihood": snapshot.Likelihood,
			"residual_impact":     snapshot.Impact,
			"residual_score":      snapshot.Score,
			"last_recomputed_at":  snapshot.RecomputedAt,
			"updated_at":          snapshot.RecomputedAt,
		})
	if result.Error != nil {
		r.log.Error(ctx, "Failed to write residual snapshot", result.Error,
			logger.String("risk_id", id.String()),
		)
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("risk", id.String())
	}
	return nil
}

// UpdateStatus moves the risk lifecycle status.
func (r *RiskRepoImpl) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RiskStatus) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&riskDBM{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("risk", id.String())
	}
	return nil
}

// ListByTenant retrieves risks of one tenant, with pagination.
func (r *RiskRepoImpl) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Risk, error) {
	var dbms []riskDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code").
		Limit(limit).
		Offset(offset).
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	risks := make([]*models.Risk, len(dbms))
	for i := range dbms {
		risks[i] = dbms[i].toDomain()
	}
	return risks, nil
}
