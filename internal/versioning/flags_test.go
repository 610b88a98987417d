package versioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georegistry/internal/domain"
)

func TestFlagRequiresSession(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, newSession()))

	snapshot, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 1)
	require.NoError(t, err)

	_, err = s.flags.Flag(ctx, snapshot, nil)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	flags, err := s.flags.FlagsFor(ctx, snapshot)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestFlagRequiresClientWithFlagIdentity(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, newSession()))

	snapshot, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 1)
	require.NoError(t, err)

	noClient := newSession()
	noClient.Client = nil
	_, err = s.flags.Flag(ctx, snapshot, noClient)
	require.ErrorIs(t, err, ErrInvalidClient)

	noIdentity := newSession()
	noIdentity.Client.FlagID = ""
	_, err = s.flags.Flag(ctx, snapshot, noIdentity)
	require.ErrorIs(t, err, ErrInvalidClient)

	flags, err := s.flags.FlagsFor(ctx, snapshot)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestFlagPastVersionOnly(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	v1, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 1)
	require.NoError(t, err)
	v2, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 2)
	require.NoError(t, err)

	flag, err := s.flags.Flag(ctx, v1, session)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, flag.SnapshotID)
	assert.Equal(t, session.Client.ID, flag.ClientID)
	assert.False(t, flag.CreatedAt.IsZero())

	// Flagging version 1 leaves version 2 unflagged.
	flags, err := s.flags.FlagsFor(ctx, v1)
	require.NoError(t, err)
	assert.Len(t, flags, 1)

	flags, err = s.flags.FlagsFor(ctx, v2)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestFlagsAccumulate(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	snapshot, err := s.snapshots.Get(ctx, domain.KindMunicipality, m.ID, 1)
	require.NoError(t, err)

	_, err = s.flags.Flag(ctx, snapshot, session)
	require.NoError(t, err)
	_, err = s.flags.Flag(ctx, snapshot, newSession())
	require.NoError(t, err)

	flags, err := s.flags.FlagsFor(ctx, snapshot)
	require.NoError(t, err)
	assert.Len(t, flags, 2)
}
