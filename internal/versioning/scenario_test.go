package versioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georegistry/internal/domain"
)

// Full lifecycle: create, rename, recode, then resolve references made
// before and after the identifier change.
func TestMunicipalityLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.Name = "Orvanne"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	m.INSEE = "54321"
	m.Bump()
	require.NoError(t, s.controller.Save(ctx, m, session))

	require.Equal(t, int64(3), m.Version)

	diffs, err := s.diffs.ListSince(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, diffs, 3)

	assert.Equal(t, map[string]domain.FieldChange{
		"name": {Old: "Eu", New: "Orvanne"},
	}, diffs[1].Fields)
	assert.Equal(t, map[string]domain.FieldChange{
		"insee": {Old: "12345", New: "54321"},
	}, diffs[2].Fields)

	// A dependent block created with the historical code resolves to the
	// same municipality as one created with the current code.
	viaOld, err := s.resolver.Resolve(ctx, domain.KindMunicipality, "insee:12345")
	require.NoError(t, err)
	viaNew, err := s.resolver.Resolve(ctx, domain.KindMunicipality, "insee:54321")
	require.NoError(t, err)
	assert.Equal(t, m.ID, viaOld.RecordMeta().ID)
	assert.Equal(t, viaOld.RecordMeta().ID, viaNew.RecordMeta().ID)

	oldBlock := domain.NewAddressBlock("rue de la République", "street", viaOld.RecordMeta().ID)
	require.NoError(t, s.controller.Save(ctx, oldBlock, session))
	newBlock := domain.NewAddressBlock("rue Pasteur", "street", viaNew.RecordMeta().ID)
	require.NoError(t, s.controller.Save(ctx, newBlock, session))
	assert.Equal(t, oldBlock.MunicipalityID, newBlock.MunicipalityID)
}

func TestResolveByRecordID(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	record, err := s.resolver.Resolve(ctx, domain.KindMunicipality, m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, m.ID, record.RecordMeta().ID)
}

func TestResolveRejectsNonIdentifierField(t *testing.T) {
	ctx := context.Background()
	s := newStack()
	session := newSession()

	m := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, s.controller.Save(ctx, m, session))

	_, err := s.resolver.Resolve(ctx, domain.KindMunicipality, "name:Eu")
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestResolveRejectsMalformedToken(t *testing.T) {
	ctx := context.Background()
	s := newStack()

	_, err := s.resolver.Resolve(ctx, domain.KindMunicipality, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidReference)
}
