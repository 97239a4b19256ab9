package domain

import (
	"fmt"
	"strings"
)

// Source records where a resolved coordinate came from.
type Source string

const (
	SourceBackend Source = "backend" // record already carried trusted coordinates
	SourceCache   Source = "cache"   // served from the geocode cache
	SourceAPI     Source = "api"     // fresh external geocoding call
)

// Property is a shopping-center record as supplied by the backend.
// Latitude/Longitude are zero when the backend has no trusted coordinates.
type Property struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Street    string  `json:"street,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// GeocodedProperty is a Property with resolved coordinates, ready to plot.
// The embedded Latitude/Longitude always hold the resolved values.
type GeocodedProperty struct {
	Property
	Geocoded         bool   `json:"geocoded"`
	Source           Source `json:"geocode_source"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// HasCoordinates reports whether the record carries a usable backend
// coordinate pair. (0,0) is treated as unset; it is in the Gulf of Guinea,
// not in any portfolio.
func (p Property) HasCoordinates() bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Address builds the human-readable mailing address sent to the geocoding
// provider. Empty fields are skipped so a missing zip does not leave a
// dangling separator.
func (p Property) Address() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(p.Street); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(p.City); s != "" {
		parts = append(parts, s)
	}
	region := strings.TrimSpace(strings.TrimSpace(p.State) + " " + strings.TrimSpace(p.Zip))
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// AddressKey derives the canonical cache key from Address. Identical input
// address text always yields the identical key; all cache lookups and inserts
// must route through this one function.
func (p Property) AddressKey() string {
	return strings.Join(strings.Fields(strings.ToLower(p.Address())), " ")
}

// DisplayName is the identifier reported for unresolvable properties.
func (p Property) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("shopping center %d", p.ID)
}
