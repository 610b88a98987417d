package domain

// IdentifierRedirect records that an old identifier value now resolves via a
// new one. Entries are unique per (kind, identifier, old) and always point
// at the latest known target: chains are compressed on write so lookups are
// single-hop.
type IdentifierRedirect struct {
	RecordKind Kind
	Identifier string
	Old        string
	New        string
}
