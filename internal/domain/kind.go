package domain

import "fmt"

// Kind identifies one of the record types managed by the registry. The set
// is closed and known at compile time.
type Kind string

const (
	KindMunicipality Kind = "municipality"
	KindAddressBlock Kind = "address_block"
	KindAddressPoint Kind = "address_point"
	KindPosition     Kind = "position"
)

// Record is the contract every versioned record type satisfies: a stable
// kind tag, the shared audit metadata, and a flat serializable field map.
type Record interface {
	Kind() Kind
	RecordMeta() *Versioned
	Fields() map[string]any
}

// DecodeFunc rebuilds a live record from a serialized field map.
type DecodeFunc func(fields map[string]any) (Record, error)

type kindSpec struct {
	decode DecodeFunc
	// identifiers are the field names eligible for redirect tracking.
	identifiers []string
}

// kinds is the static registry mapping each kind to its decoder and its
// identifier fields. Populated once here, never mutated at runtime.
var kinds = map[Kind]kindSpec{
	KindMunicipality: {decode: decodeMunicipality, identifiers: []string{"insee", "siren"}},
	KindAddressBlock: {decode: decodeAddressBlock},
	KindAddressPoint: {decode: decodeAddressPoint, identifiers: []string{"cia"}},
	KindPosition:     {decode: decodePosition},
}

// KnownKind reports whether the kind is part of the registry.
func KnownKind(kind Kind) bool {
	_, ok := kinds[kind]
	return ok
}

// Identifiers returns the identifier field names declared for the kind.
func Identifiers(kind Kind) []string {
	return kinds[kind].identifiers
}

// Decode rebuilds a record of the given kind from a serialized field map.
func Decode(kind Kind, fields map[string]any) (Record, error) {
	spec, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return spec.decode(fields)
}
