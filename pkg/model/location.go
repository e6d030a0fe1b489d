package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationParams describes one place to search in.
type LocationParams struct {
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	// GeoRadius is in meters.
	GeoRadius *float64 `json:"geo_radius,omitempty"`
}

// Location is either a single place or a list of places. The shape the
// caller chose is kept on the wire.
type Location struct {
	places []LocationParams
	multi  bool
}

// At returns a single-place location.
func At(p LocationParams) Location {
	return Location{places: []LocationParams{p}}
}

// AnyOf returns a list location.
func AnyOf(ps ...LocationParams) Location {
	return Location{places: append([]LocationParams(nil), ps...), multi: true}
}

// Places returns a copy of the places in order.
func (l Location) Places() []LocationParams {
	return append([]LocationParams(nil), l.places...)
}

// IsList reports whether the location is sent as a list.
func (l Location) IsList() bool {
	return l.multi
}

// MarshalJSON implements json.Marshaler.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.multi {
		if l.places == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.places)
	}
	if len(l.places) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(l.places[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty location")
	}
	if data[0] == '[' {
		var ps []LocationParams
		if err := json.Unmarshal(data, &ps); err != nil {
			return fmt.Errorf("decode location list: %w", err)
		}
		*l = Location{places: ps, multi: true}
		return nil
	}
	var p LocationParams
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode location: %w", err)
	}
	*l = At(p)
	return nil
}
