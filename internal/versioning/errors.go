package versioning

import "errors"

var (
	// ErrVersionConflict rejects a save whose version is not exactly one
	// past the locked version, or that lost the storage-level race. The
	// caller may reload and retry with a fresh lock.
	ErrVersionConflict = errors.New("wrong version number")

	// ErrNotAuthenticated rejects a flag attempt with no bound session.
	ErrNotAuthenticated = errors.New("must be logged in")

	// ErrInvalidClient rejects a flag attempt whose session has no client,
	// or whose client has no flag identity.
	ErrInvalidClient = errors.New("session client cannot flag")

	// ErrIntegrity signals a broken invariant upstream, e.g. a snapshot
	// sequential collision. Not recoverable by the caller.
	ErrIntegrity = errors.New("versioning integrity violation")

	// ErrInvalidReference rejects a reference token that is neither a
	// record id nor an "identifier:value" pair on a declared identifier.
	ErrInvalidReference = errors.New("invalid record reference")
)
