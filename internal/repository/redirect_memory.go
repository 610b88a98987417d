package repository

import (
	"context"
	"fmt"
	"sync"

	"georegistry/internal/domain"
)

type redirectKey struct {
	kind       domain.Kind
	identifier string
	old        string
}

type memoryRedirectRepository struct {
	mu        sync.Mutex
	redirects map[redirectKey]string
}

// NewMemoryRedirectRepository creates an in-memory redirect index.
func NewMemoryRedirectRepository() RedirectRepository {
	return &memoryRedirectRepository{redirects: make(map[redirectKey]string)}
}

// Apply upserts the redirect and repoints stale chain members under one lock,
// so a reader never observes a half-compressed chain.
func (r *memoryRedirectRepository) Apply(ctx context.Context, redirect domain.IdentifierRedirect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.redirects[redirectKey{redirect.RecordKind, redirect.Identifier, redirect.Old}] = redirect.New

	for key, target := range r.redirects {
		if key.kind == redirect.RecordKind && key.identifier == redirect.Identifier && target == redirect.Old {
			r.redirects[key] = redirect.New
		}
	}
	return nil
}

func (r *memoryRedirectRepository) Follow(ctx context.Context, kind domain.Kind, identifier, old string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.redirects[redirectKey{kind, identifier, old}]
	if !ok {
		return "", fmt.Errorf("redirect %s/%s/%s: %w", kind, identifier, old, ErrNotFound)
	}
	return target, nil
}
