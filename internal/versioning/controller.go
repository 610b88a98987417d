package versioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/auth"
	"georegistry/internal/domain"
	"georegistry/internal/metrics"
	"georegistry/internal/repository"
)

// Controller enforces optimistic concurrency and orchestrates the save
// pipeline: version check, audit stamping, live row persistence, snapshot
// recording and diff computation. One controller serves all record kinds.
type Controller struct {
	records   repository.RecordRepository
	snapshots *Snapshots
	diffs     *DiffEngine
	diffing   bool
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time
}

// ControllerOption customizes the controller.
type ControllerOption func(*Controller)

// WithDiffingDisabled turns off diff recording, used by bulk imports. The
// toggle is per controller instance, never shared mutable state.
func WithDiffingDisabled() ControllerOption {
	return func(c *Controller) { c.diffing = false }
}

// WithMetrics attaches the metrics registry.
func WithMetrics(registry *metrics.Registry) ControllerOption {
	return func(c *Controller) { c.metrics = registry }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates the save pipeline controller.
func NewController(
	records repository.RecordRepository,
	snapshots *Snapshots,
	diffs *DiffEngine,
	logger *slog.Logger,
	opts ...ControllerOption,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	controller := &Controller{
		records:   records,
		snapshots: snapshots,
		diffs:     diffs,
		diffing:   true,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// Save persists the record as its next version. The record must have been
// locked at load or construction time, and its version must be exactly one
// past the locked version; anything else is a version conflict. On success
// the record is re-locked at the saved version so it can be saved again.
func (c *Controller) Save(ctx context.Context, record domain.Record, session *auth.Session) error {
	meta := record.RecordMeta()
	if !meta.Locked() {
		return fmt.Errorf("%w: record saved without a version lock", ErrIntegrity)
	}

	if meta.Version != meta.LockedVersion()+1 {
		c.metrics.RecordConflict()
		return fmt.Errorf("%w: got %d, expected %d",
			ErrVersionConflict, meta.Version, meta.LockedVersion()+1)
	}

	now := c.now()
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	if session != nil {
		meta.ModifiedBy = session.ID
		if meta.CreatedBy == uuid.Nil {
			meta.CreatedBy = session.ID
		}
	}
	meta.ModifiedAt = now
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}

	var err error
	if meta.LockedVersion() == 0 {
		err = c.records.Insert(ctx, record)
	} else {
		err = c.records.Update(ctx, record, meta.LockedVersion())
	}
	if err != nil {
		// A uniqueness or CAS failure here means another locker won the
		// race since this instance was loaded.
		if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrStaleVersion) {
			c.metrics.RecordConflict()
			return fmt.Errorf("%w: concurrent save detected for %s/%s",
				ErrVersionConflict, record.Kind(), meta.ID)
		}
		return fmt.Errorf("failed to persist %s record: %w", record.Kind(), err)
	}

	var previous *domain.Snapshot
	if meta.Version > 1 {
		snapshot, err := c.snapshots.Get(ctx, record.Kind(), meta.ID, meta.Version-1)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load previous snapshot: %w", err)
		}
		if err == nil {
			previous = &snapshot
		}
	}

	snapshot, err := c.snapshots.Record(ctx, record)
	if err != nil {
		return err
	}

	if c.diffing {
		if _, err := c.diffs.Record(ctx, previous, &snapshot); err != nil {
			return err
		}
	}

	meta.Relock()
	c.metrics.RecordSave(string(record.Kind()))
	c.logger.Debug("record saved",
		"kind", record.Kind(),
		"id", meta.ID,
		"version", meta.Version)
	return nil
}

// Delete removes the live row. History is retained: snapshots and diffs of
// the record stay queryable, and no terminal diff is recorded.
func (c *Controller) Delete(ctx context.Context, record domain.Record) error {
	meta := record.RecordMeta()
	if err := c.records.Delete(ctx, record.Kind(), meta.ID); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", record.Kind(), meta.ID, err)
	}
	c.logger.Debug("record deleted", "kind", record.Kind(), "id", meta.ID)
	return nil
}
