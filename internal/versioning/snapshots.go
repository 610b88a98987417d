package versioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/domain"
	"georegistry/internal/repository"
)

// Snapshots is the append-only store of immutable version snapshots, keyed
// by (kind, record id, sequential version number).
type Snapshots struct {
	repo repository.SnapshotRepository
}

// NewSnapshots creates the snapshot service.
func NewSnapshots(repo repository.SnapshotRepository) *Snapshots {
	return &Snapshots{repo: repo}
}

// Record serializes the record's full field map and appends it as the
// snapshot for the record's current version. A sequential collision means a
// broken invariant upstream and surfaces as ErrIntegrity.
func (s *Snapshots) Record(ctx context.Context, record domain.Record) (domain.Snapshot, error) {
	meta := record.RecordMeta()

	raw, err := json.Marshal(record.Fields())
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to serialize %s fields: %w", record.Kind(), err)
	}

	snapshot := domain.Snapshot{
		ID:         uuid.New(),
		RecordKind: record.Kind(),
		RecordID:   meta.ID,
		Sequential: meta.Version,
		Raw:        raw,
		CreatedAt:  meta.ModifiedAt,
	}

	if err := s.repo.Insert(ctx, snapshot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Snapshot{}, fmt.Errorf("%w: snapshot %s/%s v%d already recorded",
				ErrIntegrity, snapshot.RecordKind, snapshot.RecordID, snapshot.Sequential)
		}
		return domain.Snapshot{}, fmt.Errorf("failed to record snapshot: %w", err)
	}

	return snapshot, nil
}

// List returns every snapshot of a record in ascending sequential order.
func (s *Snapshots) List(ctx context.Context, kind domain.Kind, recordID uuid.UUID) ([]domain.Snapshot, error) {
	return s.repo.ListByRecord(ctx, kind, recordID)
}

// Get looks a snapshot up by exact sequential number.
func (s *Snapshots) Get(ctx context.Context, kind domain.Kind, recordID uuid.UUID, sequential int64) (domain.Snapshot, error) {
	return s.repo.GetBySequential(ctx, kind, recordID, sequential)
}

// GetAsOf returns the snapshot effective at the given point in time: the
// latest snapshot recorded at or before it.
func (s *Snapshots) GetAsOf(ctx context.Context, kind domain.Kind, recordID uuid.UUID, at time.Time) (domain.Snapshot, error) {
	return s.repo.GetAsOf(ctx, kind, recordID, at)
}

// GetByID looks a snapshot up by its own id.
func (s *Snapshots) GetByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	return s.repo.GetByID(ctx, id)
}

// Load deserializes a snapshot back into a live record through the static
// kind registry. The instance is locked at the snapshot's version.
func (s *Snapshots) Load(snapshot domain.Snapshot) (domain.Record, error) {
	fields, err := snapshot.Data()
	if err != nil {
		return nil, err
	}
	record, err := domain.Decode(snapshot.RecordKind, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", snapshot.ID, err)
	}
	record.RecordMeta().Lock(snapshot.Sequential)
	return record, nil
}
