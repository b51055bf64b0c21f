package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

const geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// Geocoder implements domain.Geocoder using the Open-Meteo geocoding API.
type Geocoder struct {
	baseURL   string
	transport *transport
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewGeocoder creates an Open-Meteo geocoding client.
func NewGeocoder(timeout time.Duration, backoff Backoff, logger *slog.Logger, metrics *observability.Metrics) *Geocoder {
	return &Geocoder{
		baseURL:   geocodingURL,
		transport: newTransport("openmeteo-geocoding", timeout, backoff, logger),
		logger:    logger,
		metrics:   metrics,
	}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

func (g *Geocoder) Search(ctx context.Context, text string, limit int) ([]domain.LocationCandidate, error) {
	return g.lookup(ctx, text, limit, "search")
}

func (g *Geocoder) ResolveOne(ctx context.Context, text string) (domain.LocationCandidate, bool, error) {
	results, err := g.lookup(ctx, text, 1, "resolve")
	if err != nil || len(results) == 0 {
		return domain.LocationCandidate{}, false, err
	}
	return results[0], true, nil
}

func (g *Geocoder) lookup(ctx context.Context, text string, limit int, method string) ([]domain.LocationCandidate, error) {
	params := url.Values{
		"name":     {text},
		"count":    {strconv.Itoa(limit)},
		"language": {"en"},
		"format":   {"json"},
	}

	start := time.Now()
	var payload geocodingResponse
	err := g.transport.getJSON(ctx, g.baseURL+"?"+params.Encode(), &payload)
	g.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		g.logger.Warn("open-meteo geocode failed", "method", method, "query", text, "error", err)
		return nil, fmt.Errorf("geocode %q: %w", text, err)
	}

	out := make([]domain.LocationCandidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, domain.LocationCandidate{
			DisplayName: r.Name,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Country:     r.Country,
			Region:      r.Admin1,
		})
	}
	out = domain.DedupeCandidates(out)

	outcome := "success"
	if len(out) == 0 {
		outcome = "empty"
	}
	g.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc()
	return out, nil
}
