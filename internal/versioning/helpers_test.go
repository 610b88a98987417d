package versioning

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"georegistry/internal/auth"
	"georegistry/internal/repository"
)

// stack bundles the versioning services over in-memory repositories.
type stack struct {
	records    repository.RecordRepository
	snapshots  *Snapshots
	diffs      *DiffEngine
	redirects  *RedirectIndex
	flags      *FlagRegistry
	resolver   *Resolver
	controller *Controller
}

func newStack(opts ...ControllerOption) *stack {
	records := repository.NewMemoryRecordRepository()
	snapshots := NewSnapshots(repository.NewMemorySnapshotRepository())
	redirects := NewRedirectIndex(repository.NewMemoryRedirectRepository(), nil)
	diffs := NewDiffEngine(repository.NewMemoryDiffRepository(), redirects, slog.Default())
	flags := NewFlagRegistry(repository.NewMemoryFlagRepository(), nil)

	return &stack{
		records:    records,
		snapshots:  snapshots,
		diffs:      diffs,
		redirects:  redirects,
		flags:      flags,
		resolver:   NewResolver(records, redirects),
		controller: NewController(records, snapshots, diffs, slog.Default(), opts...),
	}
}

func newSession() *auth.Session {
	client := &auth.Client{ID: uuid.New(), Name: "ign", FlagID: "IGN"}
	return &auth.Session{ID: uuid.New(), Client: client, User: "editor", Token: "token"}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
