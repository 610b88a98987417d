package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable serialized copy of a record at one specific
// version. Snapshots are append-only: created exactly once per successful
// save, never mutated or deleted.
type Snapshot struct {
	ID         uuid.UUID
	RecordKind Kind
	RecordID   uuid.UUID
	Sequential int64
	Raw        json.RawMessage
	CreatedAt  time.Time
}

// Data decodes the serialized field map.
func (s Snapshot) Data() (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(s.Raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.ID, err)
	}
	return fields, nil
}
