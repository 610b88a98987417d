package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"georegistry/internal/domain"
)

type memoryFlagRepository struct {
	mu    sync.RWMutex
	flags []domain.Flag
}

// NewMemoryFlagRepository creates an in-memory flag store.
func NewMemoryFlagRepository() FlagRepository {
	return &memoryFlagRepository{}
}

func (r *memoryFlagRepository) Insert(ctx context.Context, flag domain.Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags = append(r.flags, flag)
	return nil
}

func (r *memoryFlagRepository) ListBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]domain.Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domain.Flag, 0)
	for _, flag := range r.flags {
		if flag.SnapshotID == snapshotID {
			matches = append(matches, flag)
		}
	}
	return matches, nil
}
