package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heatwatch"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Forecast engine metrics.
	Predictions    prometheus.Counter
	ModelTrainings prometheus.Counter
	ModelBias      prometheus.Gauge

	// Location search metrics.
	SearchesExecuted   prometheus.Counter
	SearchResultsStale prometheus.Counter
	SearchErrors       prometheus.Counter

	// Request lifecycle metrics.
	LifecycleTransitions    *prometheus.CounterVec // labels: transition={create,reply,send}, outcome={success,error,conflict}
	ReplyGenerationDuration prometheus.Histogram
	EventsPublished         *prometheus.CounterVec // labels: outcome={success,error}

	// Provider metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={search,resolve}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={search,resolve}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={search,resolve}
	WeatherRequests    *prometheus.CounterVec   // labels: outcome={success,error}

	// Watchlist metrics.
	WatchlistRunning         prometheus.Gauge
	WatchlistRefreshDuration prometheus.Histogram
	WatchlistRefreshErrors   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total 7-day forecasts produced.",
		}),
		ModelTrainings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_trainings_total",
			Help:      "Total successful model training runs.",
		}),
		ModelBias: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_bias",
			Help:      "Current forecast model bias.",
		}),
		SearchesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_searches_total",
			Help:      "Debounced location searches sent to the geocoder.",
		}),
		SearchResultsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_search_stale_total",
			Help:      "Search responses discarded because the session moved on.",
		}),
		SearchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_search_errors_total",
			Help:      "Debounced searches that failed at the geocoder.",
		}),
		LifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Subscriber request transitions by kind and outcome.",
		}, []string{"transition", "outcome"}),
		ReplyGenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_generation_duration_seconds",
			Help:      "Duration of reply drafting calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_events_published_total",
			Help:      "Lifecycle events handed to the publisher by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Current-conditions requests by outcome.",
		}, []string{"outcome"}),
		WatchlistRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_running",
			Help:      "1 when the watchlist scheduler is active, 0 when stopped.",
		}),
		WatchlistRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "watchlist_refresh_duration_seconds",
			Help:      "Duration of a full watchlist refresh.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		WatchlistRefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchlist_refresh_errors_total",
			Help:      "Cities that failed during a watchlist refresh.",
		}),
	}

	prometheus.MustRegister(
		m.Predictions,
		m.ModelTrainings,
		m.ModelBias,
		m.SearchesExecuted,
		m.SearchResultsStale,
		m.SearchErrors,
		m.LifecycleTransitions,
		m.ReplyGenerationDuration,
		m.EventsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.WeatherRequests,
		m.WatchlistRunning,
		m.WatchlistRefreshDuration,
		m.WatchlistRefreshErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Predictions:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "predictions_total"}),
		ModelTrainings:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "model_trainings_total"}),
		ModelBias:                prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "model_bias"}),
		SearchesExecuted:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "location_searches_total"}),
		SearchResultsStale:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "location_search_stale_total"}),
		SearchErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "location_search_errors_total"}),
		LifecycleTransitions:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "request_transitions_total"}, []string{"transition", "outcome"}),
		ReplyGenerationDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "reply_generation_duration_seconds"}),
		EventsPublished:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "lifecycle_events_published_total"}, []string{"outcome"}),
		GeocodeRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}, []string{"method"}),
		WeatherRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_requests_total"}, []string{"outcome"}),
		WatchlistRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "watchlist_running"}),
		WatchlistRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "watchlist_refresh_duration_seconds"}),
		WatchlistRefreshErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "watchlist_refresh_errors_total"}),
	}
}
