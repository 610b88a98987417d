package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"georegistry/internal/domain"
)

// recordRepository implements RecordRepository over Postgres. The live row
// keeps the full field map as JSONB next to the version used for the
// compare-and-swap update guard.
type recordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a Postgres-backed record repository.
func NewRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

func (r *recordRepository) Insert(ctx context.Context, record domain.Record) error {
	meta := record.RecordMeta()
	fields, err := json.Marshal(record.Fields())
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO records (kind, id, version, fields, updated_at)
		VALUES ($1, $2, $3, $4, now())`,
		record.Kind(), meta.ID, meta.Version, fields,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", translatePgError(err))
	}
	return nil
}

func (r *recordRepository) Update(ctx context.Context, record domain.Record, previousVersion int64) error {
	meta := record.RecordMeta()
	fields, err := json.Marshal(record.Fields())
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE records
		SET version = $3, fields = $4, updated_at = now()
		WHERE kind = $1 AND id = $2 AND version = $5`,
		record.Kind(), meta.ID, meta.Version, fields, previousVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s/%s: %w", record.Kind(), meta.ID, ErrStaleVersion)
	}
	return nil
}

func (r *recordRepository) GetByID(ctx context.Context, kind domain.Kind, id uuid.UUID) (domain.Record, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT fields FROM records WHERE kind = $1 AND id = $2`,
		kind, id,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", kind, id, translatePgError(err))
	}
	return decodeRaw(kind, raw)
}

func (r *recordRepository) GetByField(ctx context.Context, kind domain.Kind, field, value string) (domain.Record, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT fields FROM records WHERE kind = $1 AND fields->>$2 = $3`,
		kind, field, value,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s by %s=%s: %w", kind, field, value, translatePgError(err))
	}
	return decodeRaw(kind, raw)
}

func (r *recordRepository) ListByKind(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT fields FROM records WHERE kind = $1 ORDER BY fields->>'name', id`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		record, err := decodeRaw(kind, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *recordRepository) Delete(ctx context.Context, kind domain.Kind, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM records WHERE kind = $1 AND id = $2`,
		kind, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s/%s: %w", kind, id, ErrNotFound)
	}
	return nil
}
