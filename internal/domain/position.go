package domain

import "github.com/google/uuid"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Position locates an address point: a door, a parcel centroid, a delivery
// point. One address point may carry several positions from several sources.
type Position struct {
	Versioned
	Center         Point
	AddressPointID uuid.UUID
	Source         string
	PositionKind   string
	Attributes     map[string]string
	Comment        string
}

// NewPosition creates an unsaved position at version 1.
func NewPosition(center Point, addressPointID uuid.UUID) *Position {
	p := &Position{
		Center:         center,
		AddressPointID: addressPointID,
	}
	p.ID = uuid.New()
	p.Version = 1
	p.Lock(0)
	return p
}

func (p *Position) Kind() Kind { return KindPosition }

func (p *Position) Fields() map[string]any {
	fields := p.metaFields()
	fields["center"] = map[string]any{"lon": p.Center.Lon, "lat": p.Center.Lat}
	fields["addresspoint"] = formatUUID(p.AddressPointID)
	fields["source"] = p.Source
	fields["kind"] = p.PositionKind
	fields["attributes"] = p.Attributes
	fields["comment"] = p.Comment
	return fields
}

func decodePosition(fields map[string]any) (Record, error) {
	meta, err := decodeVersioned(fields)
	if err != nil {
		return nil, err
	}
	addressPointID, err := fieldUUID(fields, "addresspoint")
	if err != nil {
		return nil, err
	}
	var center Point
	if raw, ok := fields["center"].(map[string]any); ok {
		center.Lon = fieldFloat64(raw, "lon")
		center.Lat = fieldFloat64(raw, "lat")
	}
	return &Position{
		Versioned:      meta,
		Center:         center,
		AddressPointID: addressPointID,
		Source:         fieldString(fields, "source"),
		PositionKind:   fieldString(fields, "kind"),
		Attributes:     fieldStringMap(fields, "attributes"),
		Comment:        fieldString(fields, "comment"),
	}, nil
}
