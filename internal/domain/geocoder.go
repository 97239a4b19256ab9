package domain

import "context"

// Result is the outcome of resolving one address. Failed lookups carry the
// input address as FormattedAddress and OK=false; they are never cached, so a
// transient provider outage cannot permanently poison an address.
type Result struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
	OK               bool    `json:"success"`
}

// Geocoder resolves a free-text address to coordinates.
//
// Implementations never return an error: provider rejections, zero results,
// quota exhaustion, transport failures, and timeouts all flatten to a Result
// with OK=false. The flattened surface keeps batch aggregation simple; the
// caller only ever branches on OK.
type Geocoder interface {
	Geocode(ctx context.Context, address string) Result
}
