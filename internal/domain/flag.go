package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flag is an approval annotation attached to one historical snapshot by an
// authenticated client. Flags are additive history, never toggled state.
type Flag struct {
	ID         uuid.UUID
	SnapshotID uuid.UUID
	ClientID   uuid.UUID
	SessionID  uuid.UUID
	CreatedAt  time.Time
}
