package versioning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georegistry/internal/domain"
)

func TestSaveAssignsSequentialVersions(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Eu-sur-Mer"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Alias = []string{"Augusta"}
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	assert.Equal(t, int64(3), m.Version)

	snapshots, err := s.snapshots.List(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	for i, snapshot := range snapshots {
		assert.Equal(t, int64(i+1), snapshot.Sequential)
	}
}

func TestSaveRejectsWrongVersion(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	// Duplicate submission: same instance saved again without bumping.
	m.Name = "Orvanne"
	err := s.controller.Save(ctx, m, session)
	require.ErrorIs(t, err, ErrVersionConflict)

	// Stale update: version jumps past the next one.
	m.Version = 5
	err = s.controller.Save(ctx, m, session)
	require.ErrorIs(t, err, ErrVersionConflict)

	// Neither failed attempt left a snapshot behind.
	snapshots, err := s.snapshots.List(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)

	persisted, err := s.records.GetByID(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), persisted.RecordMeta().Version)
	assert.Equal(t, "Eu", persisted.(*domain.Municipality).Name)
}

func TestSaveRejectsDuplicateAddressPointSlot(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	block := domain.NewAddressBlock("rue des Lilas", "street", uuid.New())
	require.NoError(t, s.controller.Save(ctx, block, session))

	first := domain.NewAddressPoint("1", "bis", block.ID)
	require.NoError(t, s.controller.Save(ctx, first, session))

	// The (number, ordinal, primary_block) slot is taken.
	second := domain.NewAddressPoint("1", "bis", block.ID)
	err := s.controller.Save(ctx, second, session)
	require.ErrorIs(t, err, ErrVersionConflict)

	// The failed save left no snapshot behind.
	snapshots, err := s.snapshots.List(ctx, domain.KindAddressPoint, second.ID)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	// A different ordinal in the same block is free.
	third := domain.NewAddressPoint("1", "ter", block.ID)
	require.NoError(t, s.controller.Save(ctx, third, session))
}

func TestSaveRejectsConcurrentLockers(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	// Two collaborators load the same persisted version.
	first, err := s.records.GetByID(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	first.RecordMeta().Lock(first.RecordMeta().Version)

	second, err := s.records.GetByID(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	second.RecordMeta().Lock(second.RecordMeta().Version)

	first.(*domain.Municipality).Name = "Orvanne"
	first.RecordMeta().Bump()
	require.NoError(t, s.controller.Save(ctx, first, session))

	second.(*domain.Municipality).Name = "Eu-les-Bains"
	second.RecordMeta().Bump()
	err = s.controller.Save(ctx, second, session)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestSaveStampsAuditMetadata(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2016, 1, 12, 9, 30, 0, 0, time.UTC)
	s := newStack(WithClock(fixedClock(created)))
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, created, m.ModifiedAt)
	assert.Equal(t, session.ID, m.CreatedBy)
	assert.Equal(t, session.ID, m.ModifiedBy)

	// A later save moves modified_* but leaves created_* untouched.
	other := newSession()
	modified := created.Add(48 * time.Hour)
	s.controller.now = fixedClock(modified)

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, other))

	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, session.ID, m.CreatedBy)
	assert.Equal(t, modified, m.ModifiedAt)
	assert.Equal(t, other.ID, m.ModifiedBy)
}

func TestSaveWithDiffingDisabledRecordsNoDiff(t *testing.T) {
	ctx := context.Background()
	s := newStack(WithDiffingDisabled())
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	diffs, err := s.diffs.ListSince(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	// Snapshots are still recorded for every save.
	snapshots, err := s.snapshots.List(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestDeleteKeepsHistory(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))
	require.NoError(t, s.controller.Delete(ctx, m))

	_, err := s.records.GetByID(ctx, domain.KindMunicipality, m.ID)
	require.Error(t, err)

	snapshots, err := s.snapshots.List(ctx, domain.KindMunicipality, m.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestLoadSnapshotRestoresRecord(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789", "Augusta")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	snapshot, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 1)
	require.NoError(t, err)

	record, err := s.snapshots.Load(snapshot)
	require.NoError(t, err)

	loaded := record.(*domain.Municipality)
	assert.Equal(t, "Eu", loaded.Name)
	assert.Equal(t, []string{"Augusta"}, loaded.Alias)
	assert.Equal(t, int64(1), loaded.Version)
	assert.True(t, loaded.Locked())
}

func TestGetSnapshotAsOfTimestamp(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2016, 1, 12, 9, 30, 0, 0, time.UTC)
	s := newStack(WithClock(fixedClock(start)))
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	s.controller.now = fixedClock(start.Add(24 * time.Hour))
	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	// Between the two saves, version 1 is effective.
	snapshot, err := s.snapshots.GetAsOf(ctx, domain.KindMunicipality, m.ID, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Sequential)

	// After the second save, version 2 is effective.
	snapshot, err = s.snapshots.GetAsOf(ctx, domain.KindMunicipality, m.ID, start.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.Sequential)

	// Before the first save there is no effective snapshot.
	_, err = s.snapshots.GetAsOf(ctx, domain.KindMunicipality, m.ID, start.Add(-time.Hour))
	require.Error(t, err)
}
