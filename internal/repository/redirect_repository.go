package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"georegistry/internal/db"
	"georegistry/internal/domain"
)

// redirectRepository implements RedirectRepository over Postgres.
type redirectRepository struct {
	conn *db.Connection
}

// NewRedirectRepository creates a Postgres-backed redirect repository.
func NewRedirectRepository(conn *db.Connection) RedirectRepository {
	return &redirectRepository{conn: conn}
}

// Apply upserts the redirect and compresses chains in one transaction so no
// reader observes a half-compressed chain.
func (r *redirectRepository) Apply(ctx context.Context, redirect domain.IdentifierRedirect) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO identifier_redirects (kind, identifier, old_value, new_value)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (kind, identifier, old_value)
			DO UPDATE SET new_value = EXCLUDED.new_value`,
			redirect.RecordKind, redirect.Identifier, redirect.Old, redirect.New,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert redirect: %w", translatePgError(err))
		}

		// Repoint every redirect that targeted the now-stale value.
		_, err = tx.Exec(ctx, `
			UPDATE identifier_redirects
			SET new_value = $4
			WHERE kind = $1 AND identifier = $2 AND new_value = $3`,
			redirect.RecordKind, redirect.Identifier, redirect.Old, redirect.New,
		)
		if err != nil {
			return fmt.Errorf("failed to compress redirect chain: %w", translatePgError(err))
		}
		return nil
	})
}

func (r *redirectRepository) Follow(ctx context.Context, kind domain.Kind, identifier, old string) (string, error) {
	var target string
	err := r.conn.Pool.QueryRow(ctx, `
		SELECT new_value FROM identifier_redirects
		WHERE kind = $1 AND identifier = $2 AND old_value = $3`,
		kind, identifier, old,
	).Scan(&target)
	if err != nil {
		return "", fmt.Errorf("failed to follow redirect %s/%s/%s: %w",
			kind, identifier, old, translatePgError(err))
	}
	return target, nil
}
