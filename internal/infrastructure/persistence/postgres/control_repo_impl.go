package postgres

import (
	"context"
	stderrors "errors"
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

// controlDBM is the database model for the controls table.
type controlDBM struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_controls_tenant_code,priority:1"`
	Code     string    `gorm:"size:64;not null;uniqueIndex:idx_controls_tenant_code,priority:2"`

	Name            string `gorm:"size:255;not null"`
	Description     string `gorm:"type:text"`
	TargetDimension string `gorm:"size:32;not null"`

	DesignScore         int `gorm:"not null"`
	ImplementationScore int `gorm:"not null"`
	MonitoringScore     int `gorm:"not null"`
	EvaluationScore     int `gorm:"not null"`

	AssessedAt *time.Time

	Deleted   bool `gorm:"not null;default:false;index"`
	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (controlDBM) TableName() string {
	return "controls"
}

// riskControlDBM is the non-owning association between risks and controls.
// Rows here are the only thing removed when a link is broken; both endpoints
// survive.
type riskControlDBM struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	RiskID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	ControlID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

func (riskControlDBM) TableName() string {
	return "risk_controls"
}

func (dbm *controlDBM) toDomain() *models.Control {
	return &models.Control{
		ID:                  dbm.ID,
		TenantID:            dbm.TenantID,
		Code:                dbm.Code,
		Name:                dbm.Name,
		Description:         dbm.Description,
		TargetDimension:     constants.Dimension(dbm.TargetDimension),
		DesignScore:         dbm.DesignScore,
		ImplementationScore: dbm.ImplementationScore,
		MonitoringScore:     dbm.MonitoringScore,
		EvaluationScore:     dbm.EvaluationScore,
		AssessedAt:          dbm.AssessedAt,
		Deleted:             dbm.Deleted,
		DeletedAt:           dbm.DeletedAt,
		CreatedAt:           dbm.CreatedAt,
		UpdatedAt:           dbm.UpdatedAt,
	}
}

func controlFromDomain(c *models.Control) *controlDBM {
	return &controlDBM{
		ID:                  c.ID,
		TenantID:            c.TenantID,
		Code:                c.Code,
		Name:                c.Name,
		Description:         c.Description,
		TargetDimension:     string(c.TargetDimension),
		DesignScore:         c.DesignScore,
		ImplementationScore: c.ImplementationScore,
		MonitoringScore:     c.MonitoringScore,
		EvaluationScore:     c.EvaluationScore,
		AssessedAt:          c.AssessedAt,
		Deleted:             c.Deleted,
		DeletedAt:           c.DeletedAt,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ControlRepoImpl implements ControlRepository using PostgreSQL.
type ControlRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewControlRepository creates a new PostgreSQL-based control repository.
func NewControlRepository(db *gorm.DB, log logger.Logger) repository.ControlRepository {
	return &ControlRepoImpl{db: db, log: log.WithComponent("ControlRepository")}
}

// Create persists a new control.
func (r *ControlRepoImpl) Create(ctx context.Context, control *models.Control) error {
	now := time.Now()
	control.CreatedAt = now
	control.UpdatedAt = now
	if control.ID == uuid.Nil {
		control.ID = uuid.New()
	}

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(controlFromDomain(control)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict("control code already reserved").WithCause(err)
		}
		r.log.Error(ctx, "Failed to create control", err,
			logger.String("tenant_id", control.TenantID.String()),
			logger.String("code", control.Code),
		)
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// Update rewrites the mutable fields of a control, including its scores.
func (r *ControlRepoImpl) Update(ctx context.Context, control *models.Control) error {
	control.UpdatedAt = time.Now()
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&controlDBM{}).
		Where("tenant_id = ? AND id = ?", control.TenantID, control.ID).
		Updates(map[string]interface{}{
			"name":                 control.Name,
			"description":          control.Description,
			"target_dimension":     string(control.TargetDimension),
			"design_score":         control.DesignScore,
			"implementation_score": control.ImplementationScore,
			"monitoring_score":     control.MonitoringScore,
			"evaluation_score":     control.EvaluationScore,
			"assessed_at":          control.AssessedAt,
			"updated_at":           control.UpdatedAt,
		})
	if result.Error != nil {
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("control", control.ID.String())
	}
	return nil
}

// FindByID retrieves a control within a tenant scope, tombstoned or not.
func (r *ControlRepoImpl) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Control, error) {
	var dbm controlDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("control", id.String())
		}
		return nil, errors.ErrDatabaseOperation(err)
	}
	return dbm.toDomain(), nil
}

// SoftDelete sets the tombstone flag. The row and its code survive.
func (r *ControlRepoImpl) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	now := time.Now()
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&controlDBM{}).
		Where("tenant_id = ? AND id = ? AND deleted = ?", tenantID, id, false).
		Updates(map[string]interface{}{
			"deleted":    true,
			"deleted_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("control", id.String())
	}
	return nil
}

// Link attaches a control to a risk. Idempotent.
func (r *ControlRepoImpl) Link(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error {
	link := riskControlDBM{
		TenantID:  tenantID,
		RiskID:    riskID,
		ControlID: controlID,
		CreatedAt: time.Now(),
	}
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// Unlink detaches a control from a risk without touching either row.
func (r *ControlRepoImpl) Unlink(ctx context.Context, tenantID, controlID, riskID uuid.UUID) error {
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND risk_id = ? AND control_id = ?", tenantID, riskID, controlID).
		Delete(&riskControlDBM{}).Error
	if err != nil {
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// ListByRisk retrieves every control linked to a risk, including tombstoned
// ones.
func (r *ControlRepoImpl) ListByRisk(ctx context.Context, tenantID, riskID uuid.UUID) ([]*models.Control, error) {
	var dbms []controlDBM
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Joins("JOIN risk_controls ON risk_controls.control_id = controls.id AND risk_controls.tenant_id = controls.tenant_id").
		Where("risk_controls.tenant_id = ? AND risk_controls.risk_id = ?", tenantID, riskID).
		Order("controls.code").
		Find(&dbms).Error
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	controls := make([]*models.Control, len(dbms))
	for i := range dbms {
		controls[i] = dbms[i].toDomain()
	}
	return controls, nil
}

// ListRiskIDs retrieves the risks a control is linked to.
func (r *ControlRepoImpl) ListRiskIDs(ctx context.Context, tenantID, controlID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&riskControlDBM{}).
		Where("tenant_id = ? AND control_id = ?", tenantID, controlID).
		Pluck("risk_id", &ids).Error
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}
	return ids, nil
}
