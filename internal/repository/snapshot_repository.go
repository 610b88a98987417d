package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"georegistry/internal/domain"
)

// snapshotRepository implements the append-only snapshot store. The unique
// index on (kind, record_id, sequential) is the storage-level guard behind
// the whole optimistic concurrency scheme.
type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a Postgres-backed snapshot repository.
func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

func (r *snapshotRepository) Insert(ctx context.Context, snapshot domain.Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO snapshots (id, kind, record_id, sequential, raw, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snapshot.ID, snapshot.RecordKind, snapshot.RecordID,
		snapshot.Sequential, snapshot.Raw, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", translatePgError(err))
	}
	return nil
}

func (r *snapshotRepository) ListByRecord(ctx context.Context, kind domain.Kind, recordID uuid.UUID) ([]domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, record_id, sequential, raw, created_at
		FROM snapshots
		WHERE kind = $1 AND record_id = $2
		ORDER BY sequential ASC`,
		kind, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (r *snapshotRepository) GetBySequential(ctx context.Context, kind domain.Kind, recordID uuid.UUID, sequential int64) (domain.Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, record_id, sequential, raw, created_at
		FROM snapshots
		WHERE kind = $1 AND record_id = $2 AND sequential = $3`,
		kind, recordID, sequential,
	)
	snapshot, err := scanSnapshot(row)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot %s/%s v%d: %w",
			kind, recordID, sequential, translatePgError(err))
	}
	return snapshot, nil
}

func (r *snapshotRepository) GetAsOf(ctx context.Context, kind domain.Kind, recordID uuid.UUID, at time.Time) (domain.Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, record_id, sequential, raw, created_at
		FROM snapshots
		WHERE kind = $1 AND record_id = $2 AND created_at <= $3
		ORDER BY sequential DESC
		LIMIT 1`,
		kind, recordID, at,
	)
	snapshot, err := scanSnapshot(row)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot %s/%s as of %s: %w",
			kind, recordID, at, translatePgError(err))
	}
	return snapshot, nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, record_id, sequential, raw, created_at
		FROM snapshots
		WHERE id = $1`,
		id,
	)
	snapshot, err := scanSnapshot(row)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot %s: %w", id, translatePgError(err))
	}
	return snapshot, nil
}

func scanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := row.Scan(
		&snapshot.ID, &snapshot.RecordKind, &snapshot.RecordID,
		&snapshot.Sequential, &snapshot.Raw, &snapshot.CreatedAt,
	)
	return snapshot, err
}

func scanSnapshots(rows pgx.Rows) ([]domain.Snapshot, error) {
	snapshots := make([]domain.Snapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}
