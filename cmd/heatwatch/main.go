package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/heatwatch-service/internal/adapter/filestore"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/geocode"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/heatwatch-service/internal/adapter/kafka"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/openai"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/heatwatch-service/internal/adapter/redisstore"
	"github.com/couchcryptid/heatwatch-service/internal/config"
	"github.com/couchcryptid/heatwatch-service/internal/dataset"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/forecast"
	"github.com/couchcryptid/heatwatch-service/internal/lifecycle"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/couchcryptid/heatwatch-service/internal/outlook"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geocoder := geocode.FromConfig(cfg, logger, metrics)
	weather := openmeteo.NewWeatherClient(cfg.WeatherTimeout, openmeteo.DefaultBackoff, logger)

	engine := forecast.NewEngine(nil, logger, metrics)
	if cfg.TrainingDataset != "" {
		records, err := dataset.Load(cfg.TrainingDataset)
		if err != nil {
			logger.Error("failed to load training dataset", "path", cfg.TrainingDataset, "error", err)
			os.Exit(1)
		}
		if _, err := engine.Train(records); err != nil {
			logger.Error("failed to train model", "path", cfg.TrainingDataset, "error", err)
			os.Exit(1)
		}
	}

	checks := readiness{}

	// Request persistence (file by default, Redis via STORE_BACKEND=redis).
	var durable domain.DurableStore
	var rdb *redis.Client
	if cfg.StoreBackend == config.StoreRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := redisstore.New(rdb, cfg.RedisKey)
		durable = rs
		checks = append(checks, rs)
		logger.Info("redis request store enabled", "addr", cfg.RedisAddr, "key", cfg.RedisKey)
	} else {
		durable = filestore.New(cfg.StorePath)
		logger.Info("file request store enabled", "path", cfg.StorePath)
	}

	store, err := lifecycle.NewStore(ctx, durable)
	if err != nil {
		logger.Error("failed to load requests", "error", err)
		os.Exit(1)
	}

	var generator domain.ReplyGenerator
	var reports domain.ReportGenerator
	if cfg.OpenAIEndpoint != "" {
		ai := openai.NewClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout, logger)
		generator, reports = ai, ai
		logger.Info("reply drafting and location reports enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("reply drafting and location reports disabled")
	}

	var publisher domain.EventPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaLifecycleTopic, logger)
		publisher = kafkaPublisher
		logger.Info("lifecycle events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaLifecycleTopic)
	}

	manager := lifecycle.NewManager(store, generator, publisher, logger, metrics)
	outlooks := outlook.NewService(weather, engine, logger, metrics)

	watchlist := outlook.NewWatchlist(cfg.WatchlistCities, cfg.WatchlistInterval, geocoder, outlooks, logger, metrics)
	checks = append(checks, watchlist)
	if err := watchlist.Start(); err != nil {
		logger.Error("failed to start watchlist", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Services{
		Outlook:   outlooks,
		Geocoder:  geocoder,
		Model:     engine,
		Watchlist: watchlist,
		Requests:  manager,
		Reports:   reports,
	}, checks, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	watchlist.Stop()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness reports ready only when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
