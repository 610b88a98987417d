package auth

import (
	"time"

	"github.com/google/uuid"
)

// Client is an API consumer registered with the registry. FlagID is the
// public identity stamped on the flags a client creates; a client without
// one cannot flag versions.
type Client struct {
	ID     uuid.UUID
	Name   string
	FlagID string
}

// Session is one authenticated acting context. Every save is stamped with
// the session that performed it.
type Session struct {
	ID        uuid.UUID
	Client    *Client
	User      string
	Token     string
	CreatedAt time.Time
}
