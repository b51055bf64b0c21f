package geocode

import (
	"log/slog"

	"github.com/couchcryptid/heatwatch-service/internal/adapter/mapbox"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/heatwatch-service/internal/config"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// FromConfig builds the configured provider behind a rate limiter and an LRU cache.
// Cache hits do not consume rate limit tokens.
func FromConfig(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.Geocoder {
	var provider domain.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderMapbox:
		provider = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
	default:
		provider = openmeteo.NewGeocoder(cfg.WeatherTimeout, openmeteo.DefaultBackoff, logger, metrics)
	}
	logger.Info("geocoding enabled", "provider", cfg.Geocoder, "cache_size", cfg.GeocodeCacheSize, "rps", cfg.GeocodeRPS)

	limited := NewRateLimitedGeocoder(provider, cfg.GeocodeRPS, cfg.GeocodeBurst)
	return NewCachedGeocoder(limited, cfg.GeocodeCacheSize, metrics)
}
