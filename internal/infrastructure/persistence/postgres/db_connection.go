// Package postgres implements the governance repositories on PostgreSQL via
// GORM. It enforces the storage-level guarantees the domain depends on:
// unique code reservations, guarded protected-column writes, and an
// append-only, immutable transition ledger.
package postgres

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/pkg/errors"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// NewConnection opens a GORM connection pool against PostgreSQL.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey
// regardless of driver, which the sequence repository depends on.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	}
	if cfg.MaxConnIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}

	log.Info(ctx, "PostgreSQL connection pool initialized",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
		logger.Int("max_conns", cfg.MaxConns),
	)
	return db, nil
}

// Migrate creates or updates the governance schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&tenantDBM{},
		&riskDBM{},
		&controlDBM{},
		&riskControlDBM{},
		&userDBM{},
		&sequenceReservationDBM{},
		&transitionRecordDBM{},
	)
}
