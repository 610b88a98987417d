package domain

import "github.com/google/uuid"

// Municipality is an administrative unit identified by its INSEE and SIREN
// codes. Both codes are identifier fields: editing one leaves a redirect so
// external references keyed on the old value keep resolving.
type Municipality struct {
	Versioned
	Name  string
	Alias []string
	INSEE string
	SIREN string
}

// NewMunicipality creates an unsaved municipality at version 1.
func NewMunicipality(name, insee, siren string, alias ...string) *Municipality {
	m := &Municipality{
		Name:  name,
		Alias: alias,
		INSEE: insee,
		SIREN: siren,
	}
	m.ID = uuid.New()
	m.Version = 1
	m.Lock(0)
	return m
}

func (m *Municipality) Kind() Kind { return KindMunicipality }

func (m *Municipality) Fields() map[string]any {
	fields := m.metaFields()
	fields["name"] = m.Name
	fields["alias"] = m.Alias
	fields["insee"] = m.INSEE
	fields["siren"] = m.SIREN
	return fields
}

func decodeMunicipality(fields map[string]any) (Record, error) {
	meta, err := decodeVersioned(fields)
	if err != nil {
		return nil, err
	}
	return &Municipality{
		Versioned: meta,
		Name:      fieldString(fields, "name"),
		Alias:     fieldStringSlice(fields, "alias"),
		INSEE:     fieldString(fields, "insee"),
		SIREN:     fieldString(fields, "siren"),
	}, nil
}
