package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// DefaultWatchlistCities is the city list refreshed when neither
// WATCHLIST_CITIES nor WATCHLIST_FILE is set.
var DefaultWatchlistCities = []string{
	"Dhaka", "London", "New York", "Tokyo", "Dubai",
	"Sydney", "Mumbai", "Paris", "Cairo", "Singapore",
}

// Store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Geocoder backends.
const (
	GeocoderOpenMeteo = "openmeteo"
	GeocoderMapbox    = "mapbox"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Request persistence.
	StoreBackend  string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// Geocoding.
	Geocoder         string
	MapboxToken      string
	MapboxTimeout    time.Duration
	GeocodeCacheSize int
	GeocodeRPS       float64
	GeocodeBurst     int

	WeatherTimeout time.Duration

	// Reply drafting. Drafting is disabled when OpenAIEndpoint is empty.
	OpenAIEndpoint string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAITimeout  time.Duration

	// Lifecycle event publishing.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaLifecycleTopic string

	WatchlistCities   []string
	WatchlistInterval time.Duration

	TrainingDataset string
}

// watchlistFile is the YAML layout accepted by WATCHLIST_FILE.
type watchlistFile struct {
	Interval string   `yaml:"interval"`
	Cities   []string `yaml:"cities"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	openAITimeout, err := parsePositiveDuration("OPENAI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	watchlistInterval, err := parsePositiveDuration("WATCHLIST_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	burst, err := parseNonNegativeInt("GEOCODE_BURST", 10)
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GEOCODE_RPS", "5"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("invalid GEOCODE_RPS")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreBackend:  strings.ToLower(sharedcfg.EnvOrDefault("STORE_BACKEND", StoreFile)),
		StorePath:     sharedcfg.EnvOrDefault("STORE_PATH", "data/requests.json"),
		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisKey:      sharedcfg.EnvOrDefault("REDIS_KEY", "heatwatch:requests"),

		Geocoder:         strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", GeocoderOpenMeteo)),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:    mapboxTimeout,
		GeocodeCacheSize: parseGeocodeCacheSize(),
		GeocodeRPS:       rps,
		GeocodeBurst:     burst,

		WeatherTimeout: weatherTimeout,

		OpenAIEndpoint: os.Getenv("OPENAI_ENDPOINT"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout:  openAITimeout,

		KafkaEnabled:        os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaLifecycleTopic: sharedcfg.EnvOrDefault("KAFKA_LIFECYCLE_TOPIC", "subscriber-request-events"),

		WatchlistCities:   parseCities(os.Getenv("WATCHLIST_CITIES")),
		WatchlistInterval: watchlistInterval,

		TrainingDataset: os.Getenv("TRAINING_DATASET"),
	}

	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		if err := cfg.applyWatchlistFile(path); err != nil {
			return nil, err
		}
	}
	if len(cfg.WatchlistCities) == 0 {
		cfg.WatchlistCities = append([]string(nil), DefaultWatchlistCities...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreFile:
		if c.StorePath == "" {
			return errors.New("STORE_PATH is required for the file store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.Geocoder {
	case GeocoderOpenMeteo:
	case GeocoderMapbox:
		if c.MapboxToken == "" {
			return errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER %q", c.Geocoder)
	}

	if c.OpenAIEndpoint != "" && c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_ENDPOINT is set but OPENAI_API_KEY is not")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaLifecycleTopic == "" {
			return errors.New("KAFKA_LIFECYCLE_TOPIC is required")
		}
	}
	return nil
}

// applyWatchlistFile overrides the city list and, if present, the interval
// with the contents of a YAML file.
func (c *Config) applyWatchlistFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read WATCHLIST_FILE: %w", err)
	}
	var wf watchlistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("parse WATCHLIST_FILE: %w", err)
	}

	cities := make([]string, 0, len(wf.Cities))
	for _, city := range wf.Cities {
		if city = strings.TrimSpace(city); city != "" {
			cities = append(cities, city)
		}
	}
	if len(cities) > 0 {
		c.WatchlistCities = cities
	}

	if wf.Interval != "" {
		d, err := time.ParseDuration(wf.Interval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid interval %q in WATCHLIST_FILE", wf.Interval)
		}
		c.WatchlistInterval = d
	}
	return nil
}

func parseCities(s string) []string {
	var out []string
	for _, city := range strings.Split(s, ",") {
		if city = strings.TrimSpace(city); city != "" {
			out = append(out, city)
		}
	}
	return out
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
