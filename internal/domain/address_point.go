package domain

import (
	"strings"

	"github.com/google/uuid"
)

// AddressPoint is a numbered address attached to a primary block, optionally
// cross-referenced by secondary blocks (postcodes, districts). Its CIA code
// is an identifier field tracked by the redirect index.
type AddressPoint struct {
	Versioned
	Number          string
	Ordinal         string
	CIA             string
	LaPoste         string
	PrimaryBlockID  uuid.UUID
	SecondaryBlocks []uuid.UUID
}

// NewAddressPoint creates an unsaved address point at version 1.
func NewAddressPoint(number, ordinal string, primaryBlockID uuid.UUID) *AddressPoint {
	p := &AddressPoint{
		Number:         number,
		Ordinal:        ordinal,
		PrimaryBlockID: primaryBlockID,
	}
	p.ID = uuid.New()
	p.Version = 1
	p.Lock(0)
	return p
}

func (p *AddressPoint) Kind() Kind { return KindAddressPoint }

// ComputeCIA derives the CIA code from the owning municipality's INSEE code
// and the number/ordinal pair.
func (p *AddressPoint) ComputeCIA(insee, fantoir string) string {
	return strings.Join([]string{
		insee,
		fantoir,
		strings.ToUpper(p.Number),
		strings.ToUpper(p.Ordinal),
	}, "_")
}

func (p *AddressPoint) Fields() map[string]any {
	fields := p.metaFields()
	fields["number"] = p.Number
	fields["ordinal"] = p.Ordinal
	fields["cia"] = p.CIA
	fields["laposte"] = p.LaPoste
	fields["primary_block"] = formatUUID(p.PrimaryBlockID)
	fields["secondary_blocks"] = uuidStrings(p.SecondaryBlocks)
	return fields
}

func decodeAddressPoint(fields map[string]any) (Record, error) {
	meta, err := decodeVersioned(fields)
	if err != nil {
		return nil, err
	}
	primaryBlockID, err := fieldUUID(fields, "primary_block")
	if err != nil {
		return nil, err
	}
	secondary, err := fieldUUIDSlice(fields, "secondary_blocks")
	if err != nil {
		return nil, err
	}
	return &AddressPoint{
		Versioned:       meta,
		Number:          fieldString(fields, "number"),
		Ordinal:         fieldString(fields, "ordinal"),
		CIA:             fieldString(fields, "cia"),
		LaPoste:         fieldString(fields, "laposte"),
		PrimaryBlockID:  primaryBlockID,
		SecondaryBlocks: secondary,
	}, nil
}
