// Package domain models commercial real-estate properties for map display.
//
// # Data Source
//
// Property records originate from the portfolio backend REST API (shopping
// centers with nested tenants). Each record carries an identifier, a display
// name, mailing-address fields, and optionally a latitude/longitude pair
// entered by an analyst or imported from CSV. Backend coordinates arrive as
// decimal strings and are not always populated or parseable.
//
// # Address Keys
//
// The geocode cache is keyed by a normalized form of the mailing address.
// [Property.Address] builds the human-readable address sent to the geocoding
// provider ("123 Baltimore Pike, Media, PA 19063") and [Property.AddressKey]
// derives the cache key from it by lowercasing and collapsing whitespace.
// Every call site must go through AddressKey: ad hoc key construction would
// silently defeat the cache and re-trigger redundant provider calls.
//
// # Coordinate Precedence
//
// A coordinate pair already present on the record is authoritative and is
// never overwritten by a geocoded guess. Missing or zero coordinates fall
// through to the cache, then to the external provider. Provenance is recorded
// on every resolved property:
//
//	backend  coordinates came with the record
//	cache    served from a previously geocoded address
//	api      fresh external geocoding call
//
// Provenance feeds reporting and metrics only; it never drives behavior.
// Properties that cannot be resolved by any path are dropped from map-ready
// output and reported by name, because a bogus (0,0) marker is a worse
// failure than an omission the UI can explain.
package domain
