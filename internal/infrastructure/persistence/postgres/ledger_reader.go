package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/repository"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/errors"
)

// LedgerReader serves compliance reads of the transition ledger over a
// dedicated pgx pool, off the transactional GORM path. Compliance queries
// scan wide time ranges and must never contend with governance writes for
// the ORM pool.
type LedgerReader struct {
	pool *pgxpool.Pool
}

// NewLedgerReader creates a pgx-backed ledger reader.
func NewLedgerReader(pool *pgxpool.Pool) repository.TransitionLedgerReader {
	return &LedgerReader{pool: pool}
}

// NewLedgerPool opens the read-side connection pool.
func NewLedgerPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating ledger pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging ledger pool: %w", err)
	}
	return pool, nil
}

func buildLedgerWhere(filter repository.LedgerFilter) (string, []interface{}) {
	conds := []string{"tenant_id = $1"}
	args := []interface{}{filter.TenantID}

	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		conds = append(conds, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// List retrieves ledger rows matching the filter, newest first.
func (r *LedgerReader) List(ctx context.Context, filter repository.LedgerFilter) ([]*models.TransitionRecord, error) {
	where, args := buildLedgerWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT id, tenant_id, entity_type, entity_id, field, from_value, to_value,
		       actor_id, actor_role, reason, COALESCE(idempotency_key, ''), signature, created_at
		FROM transition_records
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, limitPos, offsetPos)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}
	defer rows.Close()

	var records []*models.TransitionRecord
	for rows.Next() {
		var rec models.TransitionRecord
		var field, role string
		err := rows.Scan(&rec.ID, &rec.TenantID, &rec.EntityType, &rec.EntityID,
			&field, &rec.FromValue, &rec.ToValue,
			&rec.ActorID, &role, &rec.Reason, &rec.IdempotencyKey, &rec.Signature, &rec.CreatedAt)
		if err != nil {
			return nil, errors.ErrDatabaseOperation(err)
		}
		rec.Field = constants.ProtectedField(field)
		rec.ActorRole = constants.Role(role)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseOperation(err)
	}
	return records, nil
}

// Count returns the number of rows matching the filter.
func (r *LedgerReader) Count(ctx context.Context, filter repository.LedgerFilter) (int64, error) {
	where, args := buildLedgerWhere(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM transition_records WHERE %s", where)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, errors.ErrDatabaseOperation(err)
	}
	return count, nil
}
