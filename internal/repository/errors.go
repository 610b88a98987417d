package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. On the snapshots table this is the final guard against
	// two concurrent savers racing on the same version.
	ErrDuplicate = errors.New("duplicate key")

	// ErrStaleVersion is returned when a compare-and-swap update matched no
	// row because the persisted version moved underneath the caller.
	ErrStaleVersion = errors.New("stale version")
)
