package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/auth"
	"georegistry/internal/domain"
)

// RecordRepository defines storage for the live record rows. The versioning
// controller is the only writer; reads are shared with the HTTP layer.
type RecordRepository interface {
	// Insert creates the live row for a never-persisted record. Returns
	// ErrDuplicate if a row with the same (kind, id) already exists.
	Insert(ctx context.Context, record domain.Record) error
	// Update replaces the live row, guarded by a compare-and-swap on the
	// previous version. Returns ErrStaleVersion when no row matched.
	Update(ctx context.Context, record domain.Record, previousVersion int64) error
	GetByID(ctx context.Context, kind domain.Kind, id uuid.UUID) (domain.Record, error)
	// GetByField looks a record up by one of its flat string fields, e.g.
	// a municipality by insee code.
	GetByField(ctx context.Context, kind domain.Kind, field, value string) (domain.Record, error)
	ListByKind(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
	Delete(ctx context.Context, kind domain.Kind, id uuid.UUID) error
}

// SnapshotRepository defines the append-only snapshot store.
type SnapshotRepository interface {
	// Insert appends a snapshot. Returns ErrDuplicate if a snapshot for
	// (kind, record, sequential) already exists.
	Insert(ctx context.Context, snapshot domain.Snapshot) error
	ListByRecord(ctx context.Context, kind domain.Kind, recordID uuid.UUID) ([]domain.Snapshot, error)
	GetBySequential(ctx context.Context, kind domain.Kind, recordID uuid.UUID, sequential int64) (domain.Snapshot, error)
	// GetAsOf returns the snapshot effective at the given point in time:
	// the latest one created at or before it.
	GetAsOf(ctx context.Context, kind domain.Kind, recordID uuid.UUID, at time.Time) (domain.Snapshot, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error)
}

// DiffRepository defines storage for computed diffs. Insert assigns the
// global increment used as the changefeed cursor.
type DiffRepository interface {
	Insert(ctx context.Context, diff *domain.Diff) error
	GetByIncrement(ctx context.Context, increment int64) (domain.Diff, error)
	// ListSince returns diffs with increment strictly greater than the
	// cursor, in ascending increment order.
	ListSince(ctx context.Context, cursor int64, limit int) ([]domain.Diff, error)
}

// RedirectRepository defines storage for identifier redirects.
type RedirectRepository interface {
	// Apply upserts the redirect and atomically repoints every existing
	// redirect of the same (kind, identifier) whose target equals the new
	// redirect's old value, so chains stay single-hop.
	Apply(ctx context.Context, redirect domain.IdentifierRedirect) error
	// Follow resolves a previously redirected value. Returns ErrNotFound
	// when the value was never redirected and is current as-is.
	Follow(ctx context.Context, kind domain.Kind, identifier, old string) (string, error)
}

// FlagRepository defines storage for version flags.
type FlagRepository interface {
	Insert(ctx context.Context, flag domain.Flag) error
	ListBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]domain.Flag, error)
}

// SessionRepository defines storage for authenticated sessions and their
// clients.
type SessionRepository interface {
	Insert(ctx context.Context, session *auth.Session) error
	GetByToken(ctx context.Context, token string) (*auth.Session, error)
}
