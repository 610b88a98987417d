package versioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"georegistry/internal/domain"
	"georegistry/internal/repository"
)

// Resolver turns reference tokens into live records. A token is either a
// plain record id or an "identifier:value" pair (e.g. "insee:12345"); the
// latter is resolved through the redirect index first, so references made
// before an identifier edit keep pointing at the same record.
type Resolver struct {
	records   repository.RecordRepository
	redirects *RedirectIndex
}

// NewResolver creates a reference resolver.
func NewResolver(records repository.RecordRepository, redirects *RedirectIndex) *Resolver {
	return &Resolver{records: records, redirects: redirects}
}

// Resolve returns the live record the token refers to.
func (r *Resolver) Resolve(ctx context.Context, kind domain.Kind, token string) (domain.Record, error) {
	field, value, isReference := strings.Cut(token, ":")
	if !isReference {
		id, err := uuid.Parse(token)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidReference, token, err)
		}
		return r.records.GetByID(ctx, kind, id)
	}

	if !isIdentifier(kind, field) {
		return nil, fmt.Errorf("%w: field %q is not an identifier of %s", ErrInvalidReference, field, kind)
	}

	if resolved, redirected, err := r.redirects.Follow(ctx, kind, field, value); err != nil {
		return nil, err
	} else if redirected {
		value = resolved
	}

	return r.records.GetByField(ctx, kind, field, value)
}

func isIdentifier(kind domain.Kind, field string) bool {
	for _, identifier := range domain.Identifiers(kind) {
		if identifier == field {
			return true
		}
	}
	return false
}
