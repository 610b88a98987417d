package versioning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/google/uuid"

	"georegistry/internal/domain"
	"georegistry/internal/metrics"
	"georegistry/internal/repository"
)

// Publisher receives every recorded diff, e.g. to push changefeed
// notifications. Implementations must tolerate being called on the save path.
type Publisher interface {
	Publish(ctx context.Context, diff domain.Diff)
}

// DiffEngine computes and persists field-level diffs between consecutive
// snapshots, and feeds updates into the redirect index.
type DiffEngine struct {
	repo      repository.DiffRepository
	redirects *RedirectIndex
	publisher Publisher
	metrics   *metrics.Registry
	logger    *slog.Logger
}

// DiffOption customizes the diff engine.
type DiffOption func(*DiffEngine)

// WithPublisher attaches a changefeed publisher.
func WithPublisher(publisher Publisher) DiffOption {
	return func(e *DiffEngine) { e.publisher = publisher }
}

// WithDiffMetrics attaches the metrics registry.
func WithDiffMetrics(registry *metrics.Registry) DiffOption {
	return func(e *DiffEngine) { e.metrics = registry }
}

// NewDiffEngine creates the diff engine.
func NewDiffEngine(repo repository.DiffRepository, redirects *RedirectIndex, logger *slog.Logger, opts ...DiffOption) *DiffEngine {
	if logger == nil {
		logger = slog.Default()
	}
	engine := &DiffEngine{repo: repo, redirects: redirects, logger: logger}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Record computes the diff between two consecutive snapshots and persists
// it. A nil old snapshot denotes creation, a nil new snapshot denotes
// deletion. The diff map is computed exactly once, here; the stored row is
// immutable afterwards.
func (e *DiffEngine) Record(ctx context.Context, old, new *domain.Snapshot) (domain.Diff, error) {
	reference := new
	if reference == nil {
		reference = old
	}
	if reference == nil {
		return domain.Diff{}, fmt.Errorf("diff requires at least one snapshot")
	}

	oldFields := map[string]any{}
	newFields := map[string]any{}
	var err error
	if old != nil {
		if oldFields, err = old.Data(); err != nil {
			return domain.Diff{}, err
		}
	}
	if new != nil {
		if newFields, err = new.Data(); err != nil {
			return domain.Diff{}, err
		}
	}

	diff := domain.Diff{
		RecordKind: reference.RecordKind,
		RecordID:   reference.RecordID,
		Fields:     ComputeFieldDiff(oldFields, newFields),
		CreatedAt:  reference.CreatedAt,
	}
	if old != nil {
		diff.OldSnapshotID = snapshotRef(old.ID)
	}
	if new != nil {
		diff.NewSnapshotID = snapshotRef(new.ID)
	}

	if err := e.repo.Insert(ctx, &diff); err != nil {
		return domain.Diff{}, fmt.Errorf("failed to record diff: %w", err)
	}
	e.metrics.RecordDiff()

	if err := e.redirects.OnDiff(ctx, diff); err != nil {
		return domain.Diff{}, err
	}

	if e.publisher != nil {
		e.publisher.Publish(ctx, diff)
	}

	e.logger.Debug("diff recorded",
		"increment", diff.Increment,
		"kind", diff.RecordKind,
		"record", diff.RecordID,
		"changed_fields", len(diff.Fields))

	return diff, nil
}

// Get returns one diff by its changefeed increment.
func (e *DiffEngine) Get(ctx context.Context, increment int64) (domain.Diff, error) {
	return e.repo.GetByIncrement(ctx, increment)
}

// ListSince returns the diffs recorded after the cursor, ascending. External
// consumers poll this as a global cross-record changefeed.
func (e *DiffEngine) ListSince(ctx context.Context, cursor int64, limit int) ([]domain.Diff, error) {
	return e.repo.ListSince(ctx, cursor, limit)
}

// ComputeFieldDiff compares two serialized field maps and returns the
// changed fields with stringified old/new values. Audit metadata fields are
// never part of the result; unchanged fields are omitted entirely.
func ComputeFieldDiff(oldFields, newFields map[string]any) map[string]domain.FieldChange {
	meta := make(map[string]struct{}, len(domain.MetaFieldNames))
	for _, name := range domain.MetaFieldNames {
		meta[name] = struct{}{}
	}

	keys := make(map[string]struct{}, len(oldFields)+len(newFields))
	for key := range oldFields {
		keys[key] = struct{}{}
	}
	for key := range newFields {
		keys[key] = struct{}{}
	}

	changes := make(map[string]domain.FieldChange)
	for key := range keys {
		if _, isMeta := meta[key]; isMeta {
			continue
		}
		oldValue := oldFields[key]
		newValue := newFields[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes[key] = domain.FieldChange{
			Old: stringifyFieldValue(oldValue),
			New: stringifyFieldValue(newValue),
		}
	}
	return changes
}

// stringifyFieldValue renders a field value for the diff map. Absent and
// null values render as the empty string; everything non-scalar falls back
// to its JSON encoding.
func stringifyFieldValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return string(encoded)
	}
}

func snapshotRef(id uuid.UUID) *uuid.UUID {
	ref := id
	return &ref
}
