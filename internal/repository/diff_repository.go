package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"georegistry/internal/domain"
)

// diffRepository implements DiffRepository over Postgres. The bigserial
// increment column doubles as the global changefeed cursor.
type diffRepository struct {
	pool *pgxpool.Pool
}

// NewDiffRepository creates a Postgres-backed diff repository.
func NewDiffRepository(pool *pgxpool.Pool) DiffRepository {
	return &diffRepository{pool: pool}
}

func (r *diffRepository) Insert(ctx context.Context, diff *domain.Diff) error {
	fields, err := json.Marshal(diff.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal diff fields: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO diffs (kind, record_id, old_snapshot_id, new_snapshot_id, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING increment`,
		diff.RecordKind, diff.RecordID, diff.OldSnapshotID, diff.NewSnapshotID,
		fields, diff.CreatedAt,
	).Scan(&diff.Increment)
	if err != nil {
		return fmt.Errorf("failed to insert diff: %w", translatePgError(err))
	}
	return nil
}

func (r *diffRepository) GetByIncrement(ctx context.Context, increment int64) (domain.Diff, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT increment, kind, record_id, old_snapshot_id, new_snapshot_id, fields, created_at
		FROM diffs
		WHERE increment = $1`,
		increment,
	)
	diff, err := scanDiff(row)
	if err != nil {
		return domain.Diff{}, fmt.Errorf("failed to get diff %d: %w", increment, translatePgError(err))
	}
	return diff, nil
}

func (r *diffRepository) ListSince(ctx context.Context, cursor int64, limit int) ([]domain.Diff, error) {
	query := `
		SELECT increment, kind, record_id, old_snapshot_id, new_snapshot_id, fields, created_at
		FROM diffs
		WHERE increment > $1
		ORDER BY increment ASC`
	args := []any{cursor}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diffs: %w", err)
	}
	defer rows.Close()

	diffs := make([]domain.Diff, 0)
	for rows.Next() {
		diff, err := scanDiff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diff row: %w", err)
		}
		diffs = append(diffs, diff)
	}
	return diffs, rows.Err()
}

func scanDiff(row pgx.Row) (domain.Diff, error) {
	var diff domain.Diff
	var fields []byte
	err := row.Scan(
		&diff.Increment, &diff.RecordKind, &diff.RecordID,
		&diff.OldSnapshotID, &diff.NewSnapshotID, &fields, &diff.CreatedAt,
	)
	if err != nil {
		return domain.Diff{}, err
	}
	if err := json.Unmarshal(fields, &diff.Fields); err != nil {
		return domain.Diff{}, fmt.Errorf("failed to decode diff fields: %w", err)
	}
	return diff, nil
}
