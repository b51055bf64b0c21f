package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

const forecastURL = "https://api.open-meteo.com/v1/forecast"

// WeatherClient implements domain.WeatherProvider.
type WeatherClient struct {
	baseURL   string
	transport *transport
}

// NewWeatherClient creates an Open-Meteo current-conditions client.
func NewWeatherClient(timeout time.Duration, backoff Backoff, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		baseURL:   forecastURL,
		transport: newTransport("openmeteo-weather", timeout, backoff, logger),
	}
}

type forecastResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          *struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		UVIndexMax []float64 `json:"uv_index_max"`
	} `json:"daily"`
}

func (c *WeatherClient) FetchCurrent(ctx context.Context, lat, lon float64) (domain.CurrentConditions, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', 4, 64)},
		"current":   {"temperature_2m,relative_humidity_2m,wind_speed_10m"},
		"daily":     {"uv_index_max"},
		"timezone":  {"auto"},
	}

	var payload forecastResponse
	if err := c.transport.getJSON(ctx, c.baseURL+"?"+params.Encode(), &payload); err != nil {
		return domain.CurrentConditions{}, fmt.Errorf("fetch current weather: %w", err)
	}
	if payload.Current == nil {
		return domain.CurrentConditions{}, fmt.Errorf("fetch current weather: %w: response has no current block", domain.ErrProviderUnavailable)
	}

	cond := domain.CurrentConditions{
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		WindKph:      payload.Current.WindSpeed,
	}
	if len(payload.Daily.UVIndexMax) > 0 {
		cond.UVIndex = payload.Daily.UVIndexMax[0]
	}
	zone := time.FixedZone("", payload.UTCOffsetSeconds)
	if ts, err := time.ParseInLocation("2006-01-02T15:04", payload.Current.Time, zone); err == nil {
		cond.ObservedAt = ts.UTC()
	}
	return cond, nil
}
