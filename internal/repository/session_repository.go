package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"georegistry/internal/auth"
	"georegistry/internal/db"
)

// sessionRepository implements SessionRepository over Postgres.
type sessionRepository struct {
	conn *db.Connection
}

// NewSessionRepository creates a Postgres-backed session repository.
func NewSessionRepository(conn *db.Connection) SessionRepository {
	return &sessionRepository{conn: conn}
}

// Insert upserts the session's client and inserts the session in one
// transaction.
func (r *sessionRepository) Insert(ctx context.Context, session *auth.Session) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var clientID *uuid.UUID
		if session.Client != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO clients (id, name, flag_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, flag_id = EXCLUDED.flag_id`,
				session.Client.ID, session.Client.Name, session.Client.FlagID,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert client: %w", translatePgError(err))
			}
			clientID = &session.Client.ID
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO sessions (id, client_id, username, token, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			session.ID, clientID, session.User, session.Token, session.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", translatePgError(err))
		}
		return nil
	})
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	row := r.conn.Pool.QueryRow(ctx, `
		SELECT s.id, s.username, s.token, s.created_at,
		       c.id, c.name, c.flag_id
		FROM sessions s
		LEFT JOIN clients c ON c.id = s.client_id
		WHERE s.token = $1`,
		token,
	)

	var session auth.Session
	var clientID *uuid.UUID
	var clientName, clientFlagID *string
	err := row.Scan(
		&session.ID, &session.User, &session.Token, &session.CreatedAt,
		&clientID, &clientName, &clientFlagID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", translatePgError(err))
	}
	if clientID != nil {
		client := &auth.Client{ID: *clientID}
		if clientName != nil {
			client.Name = *clientName
		}
		if clientFlagID != nil {
			client.FlagID = *clientFlagID
		}
		session.Client = client
	}
	return &session, nil
}
