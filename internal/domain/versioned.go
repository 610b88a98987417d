package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MetaFieldNames lists the audit fields shared by every versioned record.
// They are serialized into snapshots for full fidelity but are never part
// of a computed diff.
var MetaFieldNames = []string{
	"id", "version", "created_at", "created_by", "modified_at", "modified_by",
}

// Versioned carries the audit and concurrency metadata shared by all record
// kinds. It is embedded by every concrete record type.
type Versioned struct {
	ID         uuid.UUID
	Version    int64
	CreatedAt  time.Time
	CreatedBy  uuid.UUID
	ModifiedAt time.Time
	ModifiedBy uuid.UUID

	locked        bool
	lockedVersion int64
}

// RecordMeta exposes the embedded metadata to code that only holds a Record.
func (v *Versioned) RecordMeta() *Versioned { return v }

// Lock captures the persisted version at load or construction time (0 for a
// record that has never been saved). It must be called exactly once per
// in-memory instance; locking twice is a programmer error.
func (v *Versioned) Lock(persisted int64) {
	if v.locked {
		panic("domain: version lock is write-once")
	}
	v.locked = true
	v.lockedVersion = persisted
}

// Locked reports whether Lock has been called.
func (v *Versioned) Locked() bool { return v.locked }

// LockedVersion returns the version captured by Lock.
func (v *Versioned) LockedVersion() int64 { return v.lockedVersion }

// Relock advances the lock to the current version. It is called by the save
// pipeline after a successful save so the instance can be saved again.
func (v *Versioned) Relock() {
	v.lockedVersion = v.Version
}

// Bump increments the version in preparation for the next save.
func (v *Versioned) Bump() {
	v.Version++
}

func (v *Versioned) metaFields() map[string]any {
	return map[string]any{
		"id":          v.ID.String(),
		"version":     v.Version,
		"created_at":  formatTime(v.CreatedAt),
		"created_by":  formatUUID(v.CreatedBy),
		"modified_at": formatTime(v.ModifiedAt),
		"modified_by": formatUUID(v.ModifiedBy),
	}
}

func decodeVersioned(fields map[string]any) (Versioned, error) {
	var v Versioned
	var err error

	if v.ID, err = fieldUUID(fields, "id"); err != nil {
		return Versioned{}, err
	}
	v.Version = fieldInt64(fields, "version")
	if v.CreatedAt, err = fieldTime(fields, "created_at"); err != nil {
		return Versioned{}, err
	}
	if v.CreatedBy, err = fieldUUID(fields, "created_by"); err != nil {
		return Versioned{}, err
	}
	if v.ModifiedAt, err = fieldTime(fields, "modified_at"); err != nil {
		return Versioned{}, err
	}
	if v.ModifiedBy, err = fieldUUID(fields, "modified_by"); err != nil {
		return Versioned{}, err
	}
	return v, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}
