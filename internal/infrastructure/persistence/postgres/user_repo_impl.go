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

// userDBM is the database model for the users table.
type userDBM struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_users_tenant_email,priority:1"`

	Email       string `gorm:"size:255;not null;uniqueIndex:idx_users_tenant_email,priority:2"`
	DisplayName string `gorm:"size:255"`

	Status string `gorm:"size:32;not null"`
	Role   string `gorm:"size:32;not null"`

	PlatformLevel bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userDBM) TableName() string {
	return "users"
}

// BeforeUpdate rejects any write that touches the status or role columns
// unless the context carries the protected-write token. ApplyTransition is
// the only code path that sets the token, so the guarantee holds even for a
// caller reaching the table through raw column updates.
func (userDBM) BeforeUpdate(tx *gorm.DB) error {
	if !tx.Statement.Changed("Status", "Role") {
		return nil
	}
	if !protectedWriteAllowed(tx.Statement.Context) {
		return errors.ErrConstraintViolation("status and role change only through a guarded transition")
	}
	return nil
}

func (dbm *userDBM) toDomain() *models.User {
	return &models.User{
		ID:            dbm.ID,
		TenantID:      dbm.TenantID,
		Email:         dbm.Email,
		DisplayName:   dbm.DisplayName,
		Status:        constants.UserStatus(dbm.Status),
		Role:          constants.Role(dbm.Role),
		PlatformLevel: dbm.PlatformLevel,
		CreatedAt:     dbm.CreatedAt,
		UpdatedAt:     dbm.UpdatedAt,
	}
}

func userFromDomain(u *models.User) *userDBM {
	return &userDBM{
		ID:            u.ID,
		TenantID:      u.TenantID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Status:        string(u.Status),
		Role:          string(u.Role),
		PlatformLevel: u.PlatformLevel,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UserRepoImpl implements UserRepository using PostgreSQL.
type UserRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

// NewUserRepository creates a new PostgreSQL-based user repository.
func NewUserRepository(db *gorm.DB, log logger.Logger) repository.UserRepository {
	return &UserRepoImpl{db: db, log: log.WithComponent("UserRepository")}
}

// Create persists a new user. New users always start in pending status.
func (r *UserRepoImpl) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Status = constants.UserStatusPending

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(userFromDomain(user)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrConflict("email already registered in tenant").WithCause(err)
		}
		r.log.Error(ctx, "Failed to create user", err, logger.String("tenant_id", user.TenantID.String()))
		return errors.ErrDatabaseOperation(err)
	}
	return nil
}

// FindByID retrieves a user within a tenant scope.
func (r *UserRepoImpl) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	return r.find(dbFromContext(ctx, r.db).WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate retrieves a user and locks its row for the duration of
// the enclosing transaction.
func (r *UserRepoImpl) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	tx := withUpdateLock(dbFromContext(ctx, r.db).WithContext(ctx))
	return r.find(tx, tenantID, id)
}

func (r *UserRepoImpl) find(tx *gorm.DB, tenantID, id uuid.UUID) (*models.User, error) {
	var dbm userDBM
	err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("user", id.String())
		}
		return nil, errors.ErrDatabaseOperation(err)
	}
	return dbm.toDomain(), nil
}

// Update rewrites unprotected fields only. A caller whose in-memory user
// carries a drifted status or role gets a constraint violation instead of a
// silent partial write.
func (r *UserRepoImpl) Update(ctx context.Context, user *models.User) error {
	current, err := r.FindByID(ctx, user.TenantID, user.ID)
	if err != nil {
		return err
	}
	if current.Status != user.Status || current.Role != user.Role {
		return errors.ErrConstraintViolation("status and role change only through a guarded transition")
	}

	user.UpdatedAt = time.Now()
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&userDBM{}).
		Where("tenant_id = ? AND id = ?", user.TenantID, user.ID).
		Updates(map[string]interface{}{
			"email":        user.Email,
			"display_name": user.DisplayName,
			"updated_at":   user.UpdatedAt,
		})
	if result.Error != nil {
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("user", user.ID.String())
	}
	return nil
}

// ApplyTransition writes a new value into a protected column. The
// protected-write token makes this the single path past the update guard.
func (r *UserRepoImpl) ApplyTransition(ctx context.Context, tenantID, id uuid.UUID, field constants.ProtectedField, newValue string) error {
	var column string
	switch field {
	case constants.FieldStatus:
		column = "status"
	case constants.FieldRole:
		column = "role"
	default:
		return errors.ErrInvalidInput("unknown protected field")
	}

	ctx = withProtectedWriteToken(ctx)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&userDBM{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			column:       newValue,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.log.Error(ctx, "Failed to apply transition", result.Error,
			logger.String("user_id", id.String()),
			logger.String("field", string(field)),
		)
		return errors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("user", id.String())
	}
	return nil
}
