package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/domain"
)

type memorySnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []domain.Snapshot
}

// NewMemorySnapshotRepository creates an in-memory append-only snapshot store.
func NewMemorySnapshotRepository() SnapshotRepository {
	return &memorySnapshotRepository{}
}

func (r *memorySnapshotRepository) Insert(ctx context.Context, snapshot domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.snapshots {
		if existing.RecordKind == snapshot.RecordKind &&
			existing.RecordID == snapshot.RecordID &&
			existing.Sequential == snapshot.Sequential {
			return fmt.Errorf("snapshot %s/%s v%d: %w",
				snapshot.RecordKind, snapshot.RecordID, snapshot.Sequential, ErrDuplicate)
		}
	}
	r.snapshots = append(r.snapshots, snapshot)
	return nil
}

func (r *memorySnapshotRepository) ListByRecord(ctx context.Context, kind domain.Kind, recordID uuid.UUID) ([]domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domain.Snapshot, 0)
	for _, snapshot := range r.snapshots {
		if snapshot.RecordKind == kind && snapshot.RecordID == recordID {
			matches = append(matches, snapshot)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Sequential < matches[j].Sequential
	})
	return matches, nil
}

func (r *memorySnapshotRepository) GetBySequential(ctx context.Context, kind domain.Kind, recordID uuid.UUID, sequential int64) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, snapshot := range r.snapshots {
		if snapshot.RecordKind == kind && snapshot.RecordID == recordID && snapshot.Sequential == sequential {
			return snapshot, nil
		}
	}
	return domain.Snapshot{}, fmt.Errorf("snapshot %s/%s v%d: %w", kind, recordID, sequential, ErrNotFound)
}

func (r *memorySnapshotRepository) GetAsOf(ctx context.Context, kind domain.Kind, recordID uuid.UUID, at time.Time) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *domain.Snapshot
	for i := range r.snapshots {
		snapshot := r.snapshots[i]
		if snapshot.RecordKind != kind || snapshot.RecordID != recordID {
			continue
		}
		if snapshot.CreatedAt.After(at) {
			continue
		}
		if best == nil || snapshot.Sequential > best.Sequential {
			best = &r.snapshots[i]
		}
	}
	if best == nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot %s/%s at %s: %w", kind, recordID, at, ErrNotFound)
	}
	return *best, nil
}

func (r *memorySnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, snapshot := range r.snapshots {
		if snapshot.ID == id {
			return snapshot, nil
		}
	}
	return domain.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
}
