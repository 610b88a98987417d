package versioning

import (
	"context"
	"errors"
	"fmt"

	"georegistry/internal/domain"
	"georegistry/internal/metrics"
	"georegistry/internal/repository"
)

// RedirectIndex keeps identifier-based lookups valid across identifier
// edits: every time a declared identifier field changes, the old value is
// redirected to the new one and existing chains are compressed so
// resolution never follows more than one link.
type RedirectIndex struct {
	repo    repository.RedirectRepository
	metrics *metrics.Registry
}

// NewRedirectIndex creates the redirect index. The metrics registry may be nil.
func NewRedirectIndex(repo repository.RedirectRepository, registry *metrics.Registry) *RedirectIndex {
	return &RedirectIndex{repo: repo, metrics: registry}
}

// OnDiff inspects a recorded diff and applies redirects for every changed
// identifier field. Creations and deletions carry no redirect semantics.
// Applying the same diff twice is idempotent.
func (x *RedirectIndex) OnDiff(ctx context.Context, diff domain.Diff) error {
	if !diff.IsUpdate() {
		return nil
	}

	for _, identifier := range domain.Identifiers(diff.RecordKind) {
		change, changed := diff.Fields[identifier]
		if !changed || change.Old == "" || change.New == "" {
			continue
		}
		err := x.repo.Apply(ctx, domain.IdentifierRedirect{
			RecordKind: diff.RecordKind,
			Identifier: identifier,
			Old:        change.Old,
			New:        change.New,
		})
		if err != nil {
			return fmt.Errorf("failed to apply redirect %s/%s %s->%s: %w",
				diff.RecordKind, identifier, change.Old, change.New, err)
		}
		x.metrics.RecordRedirect()
	}
	return nil
}

// Follow resolves a previously redirected identifier value in a single hop.
// The second return value is false when the value was never redirected,
// meaning it is current and should be used as-is.
func (x *RedirectIndex) Follow(ctx context.Context, kind domain.Kind, identifier, value string) (string, bool, error) {
	resolved, err := x.repo.Follow(ctx, kind, identifier, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to follow redirect: %w", err)
	}
	return resolved, true, nil
}
