package repository

import (
	"context"
	"fmt"
	"sync"

	"georegistry/internal/domain"
)

type memoryDiffRepository struct {
	mu    sync.RWMutex
	diffs []domain.Diff
	next  int64
}

// NewMemoryDiffRepository creates an in-memory diff store with a process-local
// increment sequence.
func NewMemoryDiffRepository() DiffRepository {
	return &memoryDiffRepository{next: 1}
}

func (r *memoryDiffRepository) Insert(ctx context.Context, diff *domain.Diff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	diff.Increment = r.next
	r.next++
	r.diffs = append(r.diffs, *diff)
	return nil
}

func (r *memoryDiffRepository) GetByIncrement(ctx context.Context, increment int64) (domain.Diff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, diff := range r.diffs {
		if diff.Increment == increment {
			return diff, nil
		}
	}
	return domain.Diff{}, fmt.Errorf("diff %d: %w", increment, ErrNotFound)
}

func (r *memoryDiffRepository) ListSince(ctx context.Context, cursor int64, limit int) ([]domain.Diff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domain.Diff, 0)
	for _, diff := range r.diffs {
		if diff.Increment > cursor {
			matches = append(matches, diff)
		}
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}
