package domain

import (
	"time"

	"github.com/google/uuid"
)

// FieldChange records one changed field inside a diff. Values are kept as
// opaque strings regardless of the original type, so the changefeed payload
// is stable for consumers.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Diff is the field-level delta between two consecutive snapshots of one
// record. A nil OldSnapshotID denotes creation, a nil NewSnapshotID denotes
// deletion. The Increment is a global monotonically increasing sequence used
// as a changefeed cursor.
type Diff struct {
	Increment     int64                  `json:"increment"`
	RecordKind    Kind                   `json:"kind"`
	RecordID      uuid.UUID              `json:"record_id"`
	OldSnapshotID *uuid.UUID             `json:"old_snapshot_id"`
	NewSnapshotID *uuid.UUID             `json:"new_snapshot_id"`
	Fields        map[string]FieldChange `json:"fields"`
	CreatedAt     time.Time              `json:"created_at"`
}

// IsUpdate reports whether both sides of the diff are present. Only updates
// carry redirect semantics.
func (d Diff) IsUpdate() bool {
	return d.OldSnapshotID != nil && d.NewSnapshotID != nil
}
