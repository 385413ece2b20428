// Package repository defines the storage interfaces of the governance layer.
// Implementations live in internal/infrastructure/persistence.
package repository

import "context"

// TxManager opens the ACID transaction boundary every governance operation
// runs inside. The transaction handle travels in the context; repositories
// resolve it transparently, so a mutation and everything it triggers (residual
// recomputation, ledger appends) commit or roll back as one unit.
type TxManager interface {
	// WithinTx runs fn inside a transaction. A non-nil error rolls back
	// everything fn did through context-aware repositories.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
