package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/internal/domain/repository"
)

type txContextKey struct{}

// dbFromContext resolves the transaction handle started by WithinTx, falling
// back to the root pool for callers outside a transaction.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// TxManager implements repository.TxManager over a GORM connection. The
// transaction handle travels in the context so every repository call inside
// fn joins the same transaction without threading handles through domain
// signatures.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

var _ repository.TxManager = (*TxManager)(nil)

// WithinTx runs fn in one database transaction. Nested calls join the
// already-open transaction instead of starting a second one.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}
