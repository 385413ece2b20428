package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// guardTokenKey marks a context as flowing through the guarded transition
// path. Only ApplyTransition sets it; the userDBM update hook rejects any
// protected-column change without it. This keeps "status/role change only
// via transition" a property of the storage layer, not a convention.
type guardTokenKey struct{}

func withProtectedWriteToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, guardTokenKey{}, true)
}

func protectedWriteAllowed(ctx context.Context) bool {
	allowed, _ := ctx.Value(guardTokenKey{}).(bool)
	return allowed
}

// withUpdateLock adds FOR UPDATE row locking on engines that support it.
// SQLite (used in tests) has a single writer per database and rejects the
// clause, so it is skipped there.
func withUpdateLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
