// Package resolver decides which coordinates to trust for each property and
// drives bounded-rate batch resolution over property lists.
package resolver

import (
	"context"
	"log/slog"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/geocache"
	"github.com/plazaview/property-geocode-service/internal/observability"
)

// Resolver resolves one property at a time with fixed precedence:
// backend coordinates, then cache, then the external geocoder.
type Resolver struct {
	cache    *geocache.Store
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Resolver. The cache store is owned by the resolver subsystem
// for the process lifetime; the geocoder is a pure external-call wrapper.
func New(cache *geocache.Store, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// ResolveOne returns the map-ready form of a property, or ok=false when no
// coordinate could be resolved. Unresolvable properties are dropped from map
// output by the caller; a bad (0,0) marker is worse than an omission.
func (r *Resolver) ResolveOne(ctx context.Context, p domain.Property) (domain.GeocodedProperty, bool) {
	// Backend coordinates are authoritative. Never overwrite them with a
	// geocoded guess.
	if p.HasCoordinates() {
		r.metrics.Resolutions.WithLabelValues(string(domain.SourceBackend)).Inc()
		return geocoded(p, p.Latitude, p.Longitude, "", domain.SourceBackend), true
	}

	key := p.AddressKey()
	if key == "" {
		// A property without any address fields cannot be keyed or geocoded.
		// This is a caller bug, surfaced loudly but not fatally.
		r.logger.Error("property has no address fields to resolve",
			"property_id", p.ID,
			"name", p.DisplayName(),
		)
		r.metrics.ResolutionFailures.Inc()
		return domain.GeocodedProperty{}, false
	}

	if cached, ok := r.cache.Get(key); ok {
		r.metrics.Resolutions.WithLabelValues(string(domain.SourceCache)).Inc()
		return geocoded(p, cached.Latitude, cached.Longitude, cached.FormattedAddress, domain.SourceCache), true
	}

	result := r.geocoder.Geocode(ctx, p.Address())
	if !result.OK {
		r.metrics.ResolutionFailures.Inc()
		return domain.GeocodedProperty{}, false
	}

	// Cache only successes, write-through. Failures stay uncached so the
	// next run retries instead of serving a poisoned entry.
	r.cache.Put(key, result)
	r.metrics.Resolutions.WithLabelValues(string(domain.SourceAPI)).Inc()
	return geocoded(p, result.Latitude, result.Longitude, result.FormattedAddress, domain.SourceAPI), true
}

func geocoded(p domain.Property, lat, lng float64, formatted string, source domain.Source) domain.GeocodedProperty {
	p.Latitude = lat
	p.Longitude = lng
	return domain.GeocodedProperty{
		Property:         p,
		Geocoded:         true,
		Source:           source,
		FormattedAddress: formatted,
	}
}
