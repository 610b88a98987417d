package repository

import (
	"context"
	"fmt"
	"sync"

	"georegistry/internal/auth"
)

type memorySessionRepository struct {
	mu      sync.RWMutex
	byToken map[string]*auth.Session
}

// NewMemorySessionRepository creates an in-memory session store.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{byToken: make(map[string]*auth.Session)}
}

func (r *memorySessionRepository) Insert(ctx context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byToken[session.Token]; exists {
		return fmt.Errorf("session token: %w", ErrDuplicate)
	}
	r.byToken[session.Token] = session
	return nil
}

func (r *memorySessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.byToken[token]
	if !ok {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	return session, nil
}
