package versioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georegistry/internal/domain"
)

func TestIdentifierEditCreatesRedirect(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.INSEE = "54321"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	resolved, redirected, err := s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	require.True(t, redirected)
	assert.Equal(t, "54321", resolved)

	// The current value is not redirected.
	_, redirected, err = s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "54321")
	require.NoError(t, err)
	assert.False(t, redirected)
}

func TestRedirectChainIsCompressed(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.INSEE = "54321"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.INSEE = "99999"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	// The oldest value resolves to the newest in a single hop.
	resolved, redirected, err := s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	require.True(t, redirected)
	assert.Equal(t, "99999", resolved)

	resolved, redirected, err = s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "54321")
	require.NoError(t, err)
	require.True(t, redirected)
	assert.Equal(t, "99999", resolved)
}

func TestCreationDiffCarriesNoRedirect(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	_, redirected, err := s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	assert.False(t, redirected)
}

func TestNonIdentifierEditCarriesNoRedirect(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	_, redirected, err := s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	assert.False(t, redirected)
}

func TestOnDiffIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	oldID := domain.NewMunicipality("Eu", "12345", "123456789").ID
	diff := domain.Diff{
		RecordKind:    domain.KindMunicipality,
		RecordID:      oldID,
		OldSnapshotID: snapshotRef(oldID),
		NewSnapshotID: snapshotRef(oldID),
		Fields: map[string]domain.FieldChange{
			"insee": {Old: "12345", New: "54321"},
		},
	}

	require.NoError(t, s.redirects.OnDiff(ctx, diff))
	require.NoError(t, s.redirects.OnDiff(ctx, diff))

	resolved, redirected, err := s.redirects.Follow(ctx, domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	require.True(t, redirected)
	assert.Equal(t, "54321", resolved)
}

func TestEmptyIdentifierValuesAreSkipped(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	// The point starts without a CIA code; assigning one later is not an
	// identifier change to track.
	p := domain.NewAddressPoint("1", "bis", domain.NewMunicipality("Eu", "1", "2").ID)
	require.NoError(t, s.controller.Save(ctx, p, session))

	p.CIA = "12345_0100_1_BIS"
	p.Bump()
	require.NoError(t, s.controller.Save(ctx, p, session))

	_, redirected, err := s.redirects.Follow(ctx, domain.KindAddressPoint, "cia", "")
	require.NoError(t, err)
	assert.False(t, redirected)
}
