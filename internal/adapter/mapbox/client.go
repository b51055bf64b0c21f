package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:  logger,
		metrics: metrics,
	}
}

// Search returns up to limit places matching text, in Mapbox relevance order.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]domain.LocationCandidate, error) {
	return c.forward(ctx, text, limit, "search")
}

// ResolveOne returns the most relevant place for text.
func (c *Client) ResolveOne(ctx context.Context, text string) (domain.LocationCandidate, bool, error) {
	results, err := c.forward(ctx, text, 1, "resolve")
	if err != nil || len(results) == 0 {
		return domain.LocationCandidate{}, false, err
	}
	return results[0], true, nil
}

func (c *Client) forward(ctx context.Context, text string, limit int, method string) ([]domain.LocationCandidate, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(text))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {strconv.Itoa(limit)},
		"types":        {"place,locality,district,region"},
		"language":     {"en"},
	}

	start := time.Now()
	results, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		c.logger.Warn("mapbox geocode failed", "method", method, "query", text, "error", err)
		return nil, err
	case len(results) == 0:
		c.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	}
	return results, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.LocationCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mapbox request: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: mapbox API error: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, fmt.Errorf("%w: decode mapbox response: %w", domain.ErrProviderUnavailable, err)
	}

	out := make([]domain.LocationCandidate, 0, len(mapboxResp.Features))
	for _, f := range mapboxResp.Features {
		if len(f.Center) != 2 {
			continue
		}
		out = append(out, f.candidate())
	}
	return domain.DedupeCandidates(out), nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64     `json:"center"` // [lon, lat]
	PlaceName string        `json:"place_name"`
	Text      string        `json:"text"`
	Relevance float64       `json:"relevance"`
	Context   []contextItem `json:"context"`
}

type contextItem struct {
	ID   string `json:"id"` // e.g. "region.123", "country.456"
	Text string `json:"text"`
}

func (f feature) candidate() domain.LocationCandidate {
	c := domain.LocationCandidate{
		DisplayName: f.Text,
		Longitude:   f.Center[0],
		Latitude:    f.Center[1],
	}
	for _, item := range f.Context {
		switch {
		case strings.HasPrefix(item.ID, "region."):
			c.Region = item.Text
		case strings.HasPrefix(item.ID, "country."):
			c.Country = item.Text
		}
	}
	return c
}
