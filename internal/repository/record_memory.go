package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"georegistry/internal/domain"
)

type recordKey struct {
	kind domain.Kind
	id   uuid.UUID
}

// memoryRecordRepository keeps live rows in a map of serialized field maps,
// mirroring the JSONB round trip of the Postgres implementation.
type memoryRecordRepository struct {
	mu   sync.RWMutex
	rows map[recordKey]json.RawMessage
}

// NewMemoryRecordRepository creates an in-memory record repository, used by
// unit tests and the import tool's dry-run mode.
func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{rows: make(map[recordKey]json.RawMessage)}
}

func (r *memoryRecordRepository) Insert(ctx context.Context, record domain.Record) error {
	raw, err := json.Marshal(record.Fields())
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}

	key := recordKey{kind: record.Kind(), id: record.RecordMeta().ID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[key]; exists {
		return fmt.Errorf("record %s/%s: %w", key.kind, key.id, ErrDuplicate)
	}
	if err := r.checkAddressPointSlot(record); err != nil {
		return err
	}
	r.rows[key] = raw
	return nil
}

func (r *memoryRecordRepository) Update(ctx context.Context, record domain.Record, previousVersion int64) error {
	raw, err := json.Marshal(record.Fields())
	if err != nil {
		return fmt.Errorf("failed to marshal record fields: %w", err)
	}

	key := recordKey{kind: record.Kind(), id: record.RecordMeta().ID}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, exists := r.rows[key]
	if !exists {
		return fmt.Errorf("record %s/%s: %w", key.kind, key.id, ErrStaleVersion)
	}
	current, err := decodeRaw(key.kind, existing)
	if err != nil {
		return err
	}
	if current.RecordMeta().Version != previousVersion {
		return fmt.Errorf("record %s/%s: %w", key.kind, key.id, ErrStaleVersion)
	}
	if err := r.checkAddressPointSlot(record); err != nil {
		return err
	}
	r.rows[key] = raw
	return nil
}

// checkAddressPointSlot enforces one address point per (number, ordinal,
// primary_block), matching the partial unique index on the records table.
// Callers must hold the write lock.
func (r *memoryRecordRepository) checkAddressPointSlot(record domain.Record) error {
	if record.Kind() != domain.KindAddressPoint {
		return nil
	}
	fields := record.Fields()
	id := record.RecordMeta().ID

	for key, raw := range r.rows {
		if key.kind != domain.KindAddressPoint || key.id == id {
			continue
		}
		var stored map[string]any
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("failed to decode record fields: %w", err)
		}
		if stringField(stored, "number") == stringField(fields, "number") &&
			stringField(stored, "ordinal") == stringField(fields, "ordinal") &&
			stringField(stored, "primary_block") == stringField(fields, "primary_block") {
			return fmt.Errorf("address point %s %s already exists in block %s: %w",
				stringField(fields, "number"), stringField(fields, "ordinal"),
				stringField(fields, "primary_block"), ErrDuplicate)
		}
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func (r *memoryRecordRepository) GetByID(ctx context.Context, kind domain.Kind, id uuid.UUID) (domain.Record, error) {
	r.mu.RLock()
	raw, exists := r.rows[recordKey{kind: kind, id: id}]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("record %s/%s: %w", kind, id, ErrNotFound)
	}
	return decodeRaw(kind, raw)
}

func (r *memoryRecordRepository) GetByField(ctx context.Context, kind domain.Kind, field, value string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, raw := range r.rows {
		if key.kind != kind {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode record fields: %w", err)
		}
		if s, ok := fields[field].(string); ok && s == value {
			return decodeRaw(kind, raw)
		}
	}
	return nil, fmt.Errorf("record %s with %s=%s: %w", kind, field, value, ErrNotFound)
}

func (r *memoryRecordRepository) ListByKind(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]domain.Record, 0)
	for key, raw := range r.rows {
		if key.kind != kind {
			continue
		}
		record, err := decodeRaw(kind, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *memoryRecordRepository) Delete(ctx context.Context, kind domain.Kind, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{kind: kind, id: id}
	if _, exists := r.rows[key]; !exists {
		return fmt.Errorf("record %s/%s: %w", kind, id, ErrNotFound)
	}
	delete(r.rows, key)
	return nil
}

func decodeRaw(kind domain.Kind, raw json.RawMessage) (domain.Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}
	record, err := domain.Decode(kind, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s record: %w", kind, err)
	}
	return record, nil
}
