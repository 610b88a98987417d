package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"georegistry/internal/domain"
)

// flagRepository implements FlagRepository over Postgres.
type flagRepository struct {
	pool *pgxpool.Pool
}

// NewFlagRepository creates a Postgres-backed flag repository.
func NewFlagRepository(pool *pgxpool.Pool) FlagRepository {
	return &flagRepository{pool: pool}
}

func (r *flagRepository) Insert(ctx context.Context, flag domain.Flag) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO flags (id, snapshot_id, client_id, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		flag.ID, flag.SnapshotID, flag.ClientID, flag.SessionID, flag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flag: %w", translatePgError(err))
	}
	return nil
}

func (r *flagRepository) ListBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]domain.Flag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, snapshot_id, client_id, session_id, created_at
		FROM flags
		WHERE snapshot_id = $1
		ORDER BY seq ASC`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	flags := make([]domain.Flag, 0)
	for rows.Next() {
		var flag domain.Flag
		if err := rows.Scan(&flag.ID, &flag.SnapshotID, &flag.ClientID, &flag.SessionID, &flag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag row: %w", err)
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}
