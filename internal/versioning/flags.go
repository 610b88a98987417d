package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/auth"
	"georegistry/internal/domain"
	"georegistry/internal/metrics"
	"georegistry/internal/repository"
)

// FlagRegistry lets an authenticated client attach an approval annotation to
// a specific historical snapshot.
type FlagRegistry struct {
	repo    repository.FlagRepository
	metrics *metrics.Registry
	now     func() time.Time
}

// NewFlagRegistry creates the flag registry. The metrics registry may be nil.
func NewFlagRegistry(repo repository.FlagRepository, registry *metrics.Registry) *FlagRegistry {
	return &FlagRegistry{repo: repo, metrics: registry, now: time.Now}
}

// Flag creates an immutable flag on the snapshot for the acting session.
// The session must be present, bound to a client, and the client must carry
// a flag identity; otherwise no state is mutated.
func (r *FlagRegistry) Flag(ctx context.Context, snapshot domain.Snapshot, session *auth.Session) (domain.Flag, error) {
	if session == nil {
		return domain.Flag{}, ErrNotAuthenticated
	}
	if session.Client == nil {
		return domain.Flag{}, fmt.Errorf("%w: session has no client", ErrInvalidClient)
	}
	if session.Client.FlagID == "" {
		return domain.Flag{}, fmt.Errorf("%w: client %s has no flag identity", ErrInvalidClient, session.Client.Name)
	}

	flag := domain.Flag{
		ID:         uuid.New(),
		SnapshotID: snapshot.ID,
		ClientID:   session.Client.ID,
		SessionID:  session.ID,
		CreatedAt:  r.now(),
	}
	if err := r.repo.Insert(ctx, flag); err != nil {
		return domain.Flag{}, fmt.Errorf("failed to record flag: %w", err)
	}
	r.metrics.RecordFlag()
	return flag, nil
}

// FlagsFor returns the flags attached to a snapshot in insertion order.
func (r *FlagRegistry) FlagsFor(ctx context.Context, snapshot domain.Snapshot) ([]domain.Flag, error) {
	return r.repo.ListBySnapshot(ctx, snapshot.ID)
}
