package outlook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/go-co-op/gocron"
)

// cityTimeout bounds the geocode and weather calls for one city.
const cityTimeout = 30 * time.Second

// CityOutlook is one watchlist entry. Exactly one of Outlook and Error is set.
type CityOutlook struct {
	City    string   `json:"city"`
	Outlook *Outlook `json:"outlook,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Snapshot is the result of the latest completed refresh.
type Snapshot struct {
	RefreshedAt time.Time     `json:"refreshedAt"`
	Cities      []CityOutlook `json:"cities"`
}

// Watchlist periodically refreshes outlooks for a fixed list of cities.
// City names are resolved through the geocoder once and then cached.
type Watchlist struct {
	cities    []string
	interval  time.Duration
	geocoder  domain.Geocoder
	service   *Service
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	metrics   *observability.Metrics

	// ctx scopes scheduled refreshes; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	resolved map[string]domain.LocationCandidate
	latest   Snapshot
	ready    atomic.Bool
}

// NewWatchlist creates a Watchlist. Call Start to begin refreshing.
func NewWatchlist(cities []string, interval time.Duration, geocoder domain.Geocoder, service *Service, logger *slog.Logger, metrics *observability.Metrics) *Watchlist {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Watchlist{
		cities:    cities,
		interval:  interval,
		geocoder:  geocoder,
		service:   service,
		scheduler: s,
		logger:    logger,
		metrics:   metrics,
		resolved:  make(map[string]domain.LocationCandidate),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the refresh job; the first refresh runs immediately.
func (w *Watchlist) Start() error {
	if len(w.cities) == 0 {
		w.logger.Info("watchlist empty; nothing to schedule")
		w.ready.Store(true)
		return nil
	}

	_, err := w.scheduler.Every(w.interval).Do(func() {
		w.Refresh(w.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule watchlist: %w", err)
	}

	w.scheduler.StartAsync()
	w.metrics.WatchlistRunning.Set(1)
	w.logger.Info("watchlist started", "cities", len(w.cities), "interval", w.interval)
	return nil
}

// Stop cancels future refreshes and aborts the provider calls of a running one.
func (w *Watchlist) Stop() {
	w.cancel()
	w.scheduler.Stop()
	w.metrics.WatchlistRunning.Set(0)
}

// Refresh recomputes every city concurrently and replaces the snapshot.
// Failed cities are reported in the snapshot rather than aborting the run.
func (w *Watchlist) Refresh(ctx context.Context) {
	start := time.Now()
	results := make([]CityOutlook, len(w.cities))

	var wg sync.WaitGroup
	for i, city := range w.cities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cityCtx, cancel := context.WithTimeout(ctx, cityTimeout)
			defer cancel()

			results[i] = CityOutlook{City: city}
			o, err := w.cityOutlook(cityCtx, city)
			if err != nil {
				w.metrics.WatchlistRefreshErrors.Inc()
				w.logger.Warn("watchlist city failed", "city", city, "error", err)
				results[i].Error = err.Error()
				return
			}
			results[i].Outlook = &o
		}()
	}
	wg.Wait()

	w.mu.Lock()
	w.latest = Snapshot{RefreshedAt: domain.Now().UTC(), Cities: results}
	w.mu.Unlock()
	w.ready.Store(true)

	w.metrics.WatchlistRefreshDuration.Observe(time.Since(start).Seconds())
	w.logger.Info("watchlist refreshed", "cities", len(results), "duration", time.Since(start))
}

func (w *Watchlist) cityOutlook(ctx context.Context, city string) (Outlook, error) {
	loc, err := w.resolve(ctx, city)
	if err != nil {
		return Outlook{}, err
	}
	return w.service.Outlook(ctx, loc)
}

func (w *Watchlist) resolve(ctx context.Context, city string) (domain.LocationCandidate, error) {
	w.mu.RLock()
	loc, ok := w.resolved[city]
	w.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, found, err := w.geocoder.ResolveOne(ctx, city)
	if err != nil {
		return domain.LocationCandidate{}, fmt.Errorf("resolve %s: %w", city, err)
	}
	if !found {
		return domain.LocationCandidate{}, fmt.Errorf("resolve %s: %w", city, domain.ErrNotFound)
	}

	w.mu.Lock()
	w.resolved[city] = loc
	w.mu.Unlock()
	return loc, nil
}

// Snapshot returns the latest refresh result.
func (w *Watchlist) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Snapshot{
		RefreshedAt: w.latest.RefreshedAt,
		Cities:      append([]CityOutlook(nil), w.latest.Cities...),
	}
}

// CheckReadiness returns nil once the first refresh has completed.
func (w *Watchlist) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("watchlist has not completed a refresh yet")
	}
	return nil
}
