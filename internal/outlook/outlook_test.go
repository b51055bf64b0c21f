package outlook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dhaka  = domain.LocationCandidate{DisplayName: "Dhaka", Latitude: 23.8103, Longitude: 90.4125, Country: "Bangladesh"}
	london = domain.LocationCandidate{DisplayName: "London", Latitude: 51.5085, Longitude: -0.1257, Country: "United Kingdom"}
)

type stubWeather struct {
	byLat map[float64]domain.CurrentConditions
	err   error
}

func (s stubWeather) FetchCurrent(_ context.Context, lat, _ float64) (domain.CurrentConditions, error) {
	if s.err != nil {
		return domain.CurrentConditions{}, s.err
	}
	c, ok := s.byLat[lat]
	if !ok {
		return domain.CurrentConditions{}, errors.New("no reading")
	}
	return c, nil
}

// flatPredictor repeats the current temperature for every day.
type flatPredictor struct{}

func (flatPredictor) Predict(t float64) ([]domain.PredictionPoint, error) {
	points := make([]domain.PredictionPoint, 7)
	for i := range points {
		points[i] = domain.PredictionPoint{TemperatureC: t, RiskTier: domain.Classify(t), Confidence: 0.9}
	}
	return points, nil
}

type countingGeocoder struct {
	mu      sync.Mutex
	calls   map[string]int
	places  map[string]domain.LocationCandidate
	failFor string
}

func (g *countingGeocoder) Search(context.Context, string, int) ([]domain.LocationCandidate, error) {
	return nil, nil
}

func (g *countingGeocoder) ResolveOne(_ context.Context, text string) (domain.LocationCandidate, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[text]++
	if text == g.failFor {
		return domain.LocationCandidate{}, false, domain.ErrProviderUnavailable
	}
	loc, ok := g.places[text]
	return loc, ok, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestService(w domain.WeatherProvider) *Service {
	return NewService(w, flatPredictor{}, discard(), observability.NewMetricsForTesting())
}

func TestService_Outlook(t *testing.T) {
	svc := newTestService(stubWeather{byLat: map[float64]domain.CurrentConditions{
		dhaka.Latitude: {TemperatureC: 37.5, HumidityPct: 70, UVIndex: 9, WindKph: 12},
	}})

	o, err := svc.Outlook(context.Background(), dhaka)
	require.NoError(t, err)

	assert.Equal(t, dhaka, o.Location)
	assert.InDelta(t, 37.5, o.Current.TemperatureC, 0)
	assert.Len(t, o.Forecast, 7)
	assert.Equal(t, domain.RiskHigh, o.CurrentRisk)
	assert.Equal(t, o.Forecast[0].RiskTier, o.CurrentRisk)
}

func TestService_OutlookWeatherFailure(t *testing.T) {
	svc := newTestService(stubWeather{err: errors.New("502 bad gateway")})

	_, err := svc.Outlook(context.Background(), dhaka)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "502 bad gateway")
}

func newTestWatchlist(cities []string, g domain.Geocoder) *Watchlist {
	svc := newTestService(stubWeather{byLat: map[float64]domain.CurrentConditions{
		dhaka.Latitude:  {TemperatureC: 41},
		london.Latitude: {TemperatureC: 18},
	}})
	return NewWatchlist(cities, time.Hour, g, svc, discard(), observability.NewMetricsForTesting())
}

func TestWatchlist_Refresh(t *testing.T) {
	g := &countingGeocoder{
		calls:   map[string]int{},
		places:  map[string]domain.LocationCandidate{"Dhaka": dhaka, "London": london},
		failFor: "Tokyo",
	}
	w := newTestWatchlist([]string{"Dhaka", "London", "Atlantis", "Tokyo"}, g)

	require.Error(t, w.CheckReadiness(context.Background()))

	w.Refresh(context.Background())
	require.NoError(t, w.CheckReadiness(context.Background()))

	snap := w.Snapshot()
	assert.False(t, snap.RefreshedAt.IsZero())
	require.Len(t, snap.Cities, 4)

	assert.Equal(t, "Dhaka", snap.Cities[0].City)
	require.NotNil(t, snap.Cities[0].Outlook)
	assert.Equal(t, domain.RiskExtreme, snap.Cities[0].Outlook.CurrentRisk)

	require.NotNil(t, snap.Cities[1].Outlook)
	assert.Equal(t, domain.RiskLow, snap.Cities[1].Outlook.CurrentRisk)

	assert.Nil(t, snap.Cities[2].Outlook)
	assert.Contains(t, snap.Cities[2].Error, "not found")
	assert.Contains(t, snap.Cities[3].Error, "provider unavailable")
}

func TestWatchlist_ResolvesOnce(t *testing.T) {
	g := &countingGeocoder{
		calls:  map[string]int{},
		places: map[string]domain.LocationCandidate{"Dhaka": dhaka, "London": london},
	}
	w := newTestWatchlist([]string{"Dhaka", "London", "Atlantis"}, g)

	w.Refresh(context.Background())
	w.Refresh(context.Background())

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, 1, g.calls["Dhaka"])
	assert.Equal(t, 1, g.calls["London"])
	// Unresolved names are retried on the next run.
	assert.Equal(t, 2, g.calls["Atlantis"])
}

func TestWatchlist_StartRunsImmediately(t *testing.T) {
	g := &countingGeocoder{calls: map[string]int{}, places: map[string]domain.LocationCandidate{"Dhaka": dhaka}}
	w := newTestWatchlist([]string{"Dhaka"}, g)

	require.NoError(t, w.Start())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return w.CheckReadiness(context.Background()) == nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, w.Snapshot().Cities, 1)
}

func TestWatchlist_EmptyIsReady(t *testing.T) {
	w := newTestWatchlist(nil, &countingGeocoder{calls: map[string]int{}})

	require.NoError(t, w.Start())
	defer w.Stop()
	assert.NoError(t, w.CheckReadiness(context.Background()))
}

// blockingGeocoder holds every resolve until its context ends.
type blockingGeocoder struct {
	entered chan struct{}
	done    chan error
}

func (g *blockingGeocoder) Search(context.Context, string, int) ([]domain.LocationCandidate, error) {
	return nil, nil
}

func (g *blockingGeocoder) ResolveOne(ctx context.Context, _ string) (domain.LocationCandidate, bool, error) {
	g.entered <- struct{}{}
	<-ctx.Done()
	g.done <- ctx.Err()
	return domain.LocationCandidate{}, false, ctx.Err()
}

func TestWatchlist_StopCancelsRunningRefresh(t *testing.T) {
	g := &blockingGeocoder{entered: make(chan struct{}, 1), done: make(chan error, 1)}
	w := newTestWatchlist([]string{"Dhaka"}, g)
	require.NoError(t, w.Start())

	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never reached the geocoder")
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case err := <-g.done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight resolve was not canceled by Stop")
	}
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
