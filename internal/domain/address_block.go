package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockKind enumerates the supported address block categories.
var BlockKinds = []string{"street", "locality", "old_municipality", "district", "postcode"}

// AddressBlock groups address points under a municipality: a street, a
// locality, a district or a postcode area.
type AddressBlock struct {
	Versioned
	Name           string
	Alias          []string
	BlockKind      string
	Attributes     map[string]string
	MunicipalityID uuid.UUID
}

// NewAddressBlock creates an unsaved address block at version 1.
func NewAddressBlock(name, blockKind string, municipalityID uuid.UUID) *AddressBlock {
	b := &AddressBlock{
		Name:           name,
		BlockKind:      blockKind,
		MunicipalityID: municipalityID,
	}
	b.ID = uuid.New()
	b.Version = 1
	b.Lock(0)
	return b
}

func (b *AddressBlock) Kind() Kind { return KindAddressBlock }

// ValidateBlockKind rejects block kinds outside the closed set.
func (b *AddressBlock) ValidateBlockKind() error {
	for _, kind := range BlockKinds {
		if b.BlockKind == kind {
			return nil
		}
	}
	return fmt.Errorf("invalid address block kind %q", b.BlockKind)
}

func (b *AddressBlock) Fields() map[string]any {
	fields := b.metaFields()
	fields["name"] = b.Name
	fields["alias"] = b.Alias
	fields["kind"] = b.BlockKind
	fields["attributes"] = b.Attributes
	fields["municipality"] = formatUUID(b.MunicipalityID)
	return fields
}

func decodeAddressBlock(fields map[string]any) (Record, error) {
	meta, err := decodeVersioned(fields)
	if err != nil {
		return nil, err
	}
	municipalityID, err := fieldUUID(fields, "municipality")
	if err != nil {
		return nil, err
	}
	return &AddressBlock{
		Versioned:      meta,
		Name:           fieldString(fields, "name"),
		Alias:          fieldStringSlice(fields, "alias"),
		BlockKind:      fieldString(fields, "kind"),
		Attributes:     fieldStringMap(fields, "attributes"),
		MunicipalityID: municipalityID,
	}, nil
}
