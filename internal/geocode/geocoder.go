package geocode

import (
	"context"
	"errors"
	"fmt"

	"climate-stats/internal/models"
	"climate-stats/pkg/logging"
	"climate-stats/pkg/metrics"
)

// CacheStore is the slice of Cache used by the geocode path.
type CacheStore interface {
	Lookup(ctx context.Context, address string) (models.GeocodeEntry, bool, error)
	Store(ctx context.Context, address string, latitude, longitude float64) error
}

// Geocoder resolves addresses through a cache-then-provider pipeline. It is
// an explicit, caller-constructed object: collaborators are injected once and
// there is no hidden process-wide state.
//
// Caching is an optimization, never a correctness requirement: a cache that
// cannot be read degrades to a miss, and a failed cache write is logged and
// swallowed.
type Geocoder struct {
	cache    CacheStore
	provider Provider
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewGeocoder creates a geocoder over the given cache and provider. Either
// collaborator may be nil: a nil cache disables caching, a nil provider makes
// every uncached resolution fail with a CapabilityError.
func NewGeocoder(cache CacheStore, provider Provider, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Geocoder {
	return &Geocoder{
		cache:    cache,
		provider: provider,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Geocode resolves address to coordinates. A cache hit is authoritative and
// short-circuits the provider; entries never expire. On a miss the provider
// is consulted and, on success, the result is written back best-effort.
func (g *Geocoder) Geocode(ctx context.Context, address string) (models.GeocodeEntry, error) {
	timer := g.metrics.NewTimer(g.metrics.GeocodeRequestLatency)
	defer timer.ObserveDuration()

	cacheUsable := g.cache != nil

	if g.cache != nil {
		entry, found, err := g.cache.Lookup(ctx, address)
		switch {
		case err != nil:
			// Unreadable store is a miss; also skip the write-back below so a
			// broken store never aborts the overall resolution.
			cacheUsable = false
			g.metrics.RecordGeocodeCacheError("read")
			g.logger.Warn(ctx, "[GEOCODE_CACHE_UNAVAILABLE] Cache read failed, treating as miss", logging.Fields{
				"address": address,
			})
		case found:
			g.metrics.GeocodeCacheHits.Inc()
			g.logger.Debug(ctx, "[GEOCODE_HIT] Address served from cache", logging.Fields{
				"address":   address,
				"latitude":  entry.Latitude,
				"longitude": entry.Longitude,
			})
			return entry, nil
		default:
			g.metrics.GeocodeCacheMisses.Inc()
		}
	}

	if g.provider == nil {
		return models.GeocodeEntry{}, &models.CapabilityError{Capability: "geocoding provider"}
	}

	lat, lon, err := g.provider.Geocode(ctx, address)
	if errors.Is(err, ErrNoMatch) {
		g.metrics.RecordGeocodeProviderCall("no_match")
		return models.GeocodeEntry{}, &models.NotFoundError{Resource: "address", ID: address}
	}
	if err != nil {
		g.metrics.RecordGeocodeProviderCall("error")
		return models.GeocodeEntry{}, fmt.Errorf("geocoding provider lookup for %q: %w", address, err)
	}

	g.metrics.RecordGeocodeProviderCall("success")

	entry := models.GeocodeEntry{
		Address:   address,
		Latitude:  lat,
		Longitude: lon,
	}

	if cacheUsable {
		if err := g.cache.Store(ctx, address, lat, lon); err != nil {
			// Best-effort write: the resolved coordinates are still returned.
			g.metrics.RecordGeocodeCacheError("write")
			g.logger.Warn(ctx, "[GEOCODE_CACHE_WRITE_FAILED] Discarding cache write failure", logging.Fields{
				"address": address,
			})
		}
	}

	g.logger.Debug(ctx, "[GEOCODE_RESOLVED] Address resolved via provider", logging.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
	})

	return entry, nil
}

// Verify the durable cache satisfies the store interface.
var _ CacheStore = (*Cache)(nil)
