package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-odds/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-odds/internal/adapter/kafka"
	"github.com/couchcryptid/climate-odds/internal/adapter/nominatim"
	"github.com/couchcryptid/climate-odds/internal/adapter/power"
	"github.com/couchcryptid/climate-odds/internal/cache"
	"github.com/couchcryptid/climate-odds/internal/config"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/learn"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"github.com/couchcryptid/climate-odds/internal/outlook"
	"github.com/couchcryptid/climate-odds/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

// readinessChecks is ready when every check passes.
type readinessChecks []sharedobs.ReadinessChecker

func (c readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	var ready readinessChecks

	// Dataset cache (CACHE_BACKEND=memory|redis).
	var store cache.Store
	var redisClient *redis.Client
	switch cfg.CacheBackend {
	case config.CacheRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := cache.NewRedis(redisClient, "climate-odds:")
		store = rs
		ready = append(ready, rs)
		logger.Info("redis dataset cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	default:
		store = cache.NewMemory(cfg.CacheSize, clock)
		logger.Info("in-memory dataset cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	powerClient := power.NewClient(power.Options{
		BaseURL:    cfg.PowerBaseURL,
		Timeout:    cfg.PowerTimeout,
		StartDate:  cfg.PowerStartDate,
		Community:  cfg.PowerCommunity,
		Parameters: cfg.PowerParameters,
	}, clock, metrics, logger)
	source := power.NewCachedSource(powerClient, store, cfg.CacheTTL,
		powerClient.StartDate(), powerClient.Parameters(), metrics, logger)

	// Initialize geocoder (feature-flagged via GEOCODER_ENABLED).
	var geocoder domain.Geocoder
	var suggester httpadapter.Suggester
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.NominatimURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout,
			cfg.GeocoderRateLimit, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocoderCacheSize, cfg.CacheTTL, clock, metrics)
		suggester = client
		metrics.GeocodeEnabled.Set(1)
		logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL, "cache_size", cfg.GeocoderCacheSize)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("nominatim geocoding disabled")
	}

	opts := outlook.DefaultOptions()
	opts.MLEnabled = cfg.MLEnabled
	opts.Features = learn.BuildOptions{Lags: cfg.MLLags, Threshold: cfg.MLLabelThreshold}
	opts.Training = learn.TrainOptions{Epochs: cfg.MLEpochs, LearningRate: cfg.MLLearningRate, L2: cfg.MLL2}
	svc := outlook.NewService(source, geocoder, opts, metrics, logger)

	var (
		p      *pipeline.Pipeline
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(svc, logger), writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, svc, suggester, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start query worker.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
