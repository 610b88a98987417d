package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonRoundTrip mimics the snapshot store: serialize the field map and decode
// it back, so numbers arrive as float64 and slices as []any.
func jsonRoundTrip(t *testing.T, record Record) map[string]any {
	t.Helper()
	raw, err := json.Marshal(record.Fields())
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	return fields
}

func TestMunicipalityRoundTrip(t *testing.T) {
	m := NewMunicipality("Eu", "12345", "123456789", "Eu-les-Bains")

	decoded, err := Decode(KindMunicipality, jsonRoundTrip(t, m))
	require.NoError(t, err)

	got := decoded.(*Municipality)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Version, got.Version)
	assert.Equal(t, "Eu", got.Name)
	assert.Equal(t, []string{"Eu-les-Bains"}, got.Alias)
	assert.Equal(t, "12345", got.INSEE)
	assert.Equal(t, "123456789", got.SIREN)
	assert.False(t, got.Locked())
}

func TestAddressBlockRoundTrip(t *testing.T) {
	municipalityID := uuid.New()
	b := NewAddressBlock("Rue des Lilas", "street", municipalityID)
	b.Attributes = map[string]string{"fantoir": "0080"}

	decoded, err := Decode(KindAddressBlock, jsonRoundTrip(t, b))
	require.NoError(t, err)

	got := decoded.(*AddressBlock)
	assert.Equal(t, "Rue des Lilas", got.Name)
	assert.Equal(t, "street", got.BlockKind)
	assert.Equal(t, municipalityID, got.MunicipalityID)
	assert.Equal(t, map[string]string{"fantoir": "0080"}, got.Attributes)
}

func TestAddressPointRoundTrip(t *testing.T) {
	blockID := uuid.New()
	secondary := uuid.New()
	p := NewAddressPoint("6", "bis", blockID)
	p.SecondaryBlocks = []uuid.UUID{secondary}
	p.CIA = p.ComputeCIA("12345", "0080")

	decoded, err := Decode(KindAddressPoint, jsonRoundTrip(t, p))
	require.NoError(t, err)

	got := decoded.(*AddressPoint)
	assert.Equal(t, "6", got.Number)
	assert.Equal(t, "bis", got.Ordinal)
	assert.Equal(t, "12345_0080_6_BIS", got.CIA)
	assert.Equal(t, blockID, got.PrimaryBlockID)
	assert.Equal(t, []uuid.UUID{secondary}, got.SecondaryBlocks)
}

func TestPositionRoundTrip(t *testing.T) {
	pointID := uuid.New()
	p := NewPosition(Point{Lon: 2.35, Lat: 48.85}, pointID)
	p.Source = "ign"
	p.PositionKind = "entrance"

	decoded, err := Decode(KindPosition, jsonRoundTrip(t, p))
	require.NoError(t, err)

	got := decoded.(*Position)
	assert.Equal(t, Point{Lon: 2.35, Lat: 48.85}, got.Center)
	assert.Equal(t, pointID, got.AddressPointID)
	assert.Equal(t, "ign", got.Source)
	assert.Equal(t, "entrance", got.PositionKind)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode(Kind("planet"), map[string]any{})
	require.ErrorContains(t, err, "unknown record kind")
}

func TestKindRegistry(t *testing.T) {
	assert.True(t, KnownKind(KindMunicipality))
	assert.False(t, KnownKind(Kind("planet")))

	assert.Equal(t, []string{"insee", "siren"}, Identifiers(KindMunicipality))
	assert.Equal(t, []string{"cia"}, Identifiers(KindAddressPoint))
	assert.Empty(t, Identifiers(KindPosition))
}

func TestValidateBlockKind(t *testing.T) {
	b := NewAddressBlock("Rue des Lilas", "street", uuid.New())
	require.NoError(t, b.ValidateBlockKind())

	b.BlockKind = "boulevard"
	require.Error(t, b.ValidateBlockKind())
}

func TestVersionLockIsWriteOnce(t *testing.T) {
	m := NewMunicipality("Eu", "12345", "")
	require.True(t, m.Locked())
	require.EqualValues(t, 0, m.LockedVersion())

	assert.Panics(t, func() { m.Lock(1) })

	m.Relock()
	assert.EqualValues(t, 1, m.LockedVersion())
}
