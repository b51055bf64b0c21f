// Package outlook combines current conditions with the forecast model and
// keeps a scheduled watchlist of city outlooks.
package outlook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// Predictor produces a daily forecast from a current temperature.
// It is implemented by *forecast.Engine.
type Predictor interface {
	Predict(currentTempC float64) ([]domain.PredictionPoint, error)
}

// Outlook is the current weather and 7-day heat forecast for one place.
type Outlook struct {
	Location    domain.LocationCandidate `json:"location"`
	Current     domain.CurrentConditions `json:"current"`
	CurrentRisk domain.RiskTier          `json:"currentRisk"`
	Forecast    []domain.PredictionPoint `json:"forecast"`
}

// Service builds outlooks.
type Service struct {
	weather   domain.WeatherProvider
	predictor Predictor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates an outlook Service.
func NewService(weather domain.WeatherProvider, predictor Predictor, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		weather:   weather,
		predictor: predictor,
		logger:    logger,
		metrics:   metrics,
	}
}

// Outlook fetches current conditions for loc and runs the forecast. A weather
// failure is returned as ErrProviderUnavailable; no default reading is used.
func (s *Service) Outlook(ctx context.Context, loc domain.LocationCandidate) (Outlook, error) {
	current, err := s.weather.FetchCurrent(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.metrics.WeatherRequests.WithLabelValues("error").Inc()
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return Outlook{}, fmt.Errorf("outlook for %s: %w", loc.FullName(), err)
	}
	s.metrics.WeatherRequests.WithLabelValues("success").Inc()

	points, err := s.predictor.Predict(current.TemperatureC)
	if err != nil {
		return Outlook{}, fmt.Errorf("outlook for %s: %w", loc.FullName(), err)
	}

	s.logger.Debug("outlook computed",
		"location", loc.FullName(),
		"temperature_c", current.TemperatureC,
		"risk", points[0].RiskTier,
	)
	return Outlook{
		Location:    loc,
		Current:     current,
		CurrentRisk: points[0].RiskTier,
		Forecast:    points,
	}, nil
}
