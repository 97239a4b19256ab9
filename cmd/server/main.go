package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/plazaview/property-geocode-service/internal/adapter/backend"
	"github.com/plazaview/property-geocode-service/internal/adapter/google"
	httpadapter "github.com/plazaview/property-geocode-service/internal/adapter/http"
	kafkaadapter "github.com/plazaview/property-geocode-service/internal/adapter/kafka"
	"github.com/plazaview/property-geocode-service/internal/config"
	"github.com/plazaview/property-geocode-service/internal/geocache"
	"github.com/plazaview/property-geocode-service/internal/observability"
	"github.com/plazaview/property-geocode-service/internal/resolver"
	"github.com/plazaview/property-geocode-service/internal/warmer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Durable cache persistence is optional: on open failure the service
	// degrades to an in-memory cache rather than refusing to start.
	var persister geocache.Persister
	var sqliteStore *geocache.SQLiteStore
	if cfg.CachePath != "" {
		sqliteStore, err = geocache.OpenSQLite(cfg.CachePath)
		if err != nil {
			logger.Warn("cache persistence unavailable, running in-memory",
				"path", cfg.CachePath, "error", err)
		} else {
			persister = sqliteStore
			logger.Info("cache persistence enabled", "path", cfg.CachePath)
		}
	}
	cache := geocache.NewStore(persister, metrics, logger)

	if cfg.GoogleAPIKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; only backend and cached coordinates will resolve")
	}
	geocoder := google.NewClient(cfg.GoogleAPIKey, cfg.GeocodeTimeout, metrics, logger)

	res := resolver.New(cache, geocoder, metrics, logger)
	pipeline := resolver.NewPipeline(res, clockwork.NewRealClock(), metrics, logger, cfg.BatchSize, cfg.BatchDelay)

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, pipeline, cache, pipeline, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm-up run: resolve the full portfolio once so the cache is hot and
	// the readiness probe flips before the first dashboard request.
	go func() {
		properties, err := backendClient.ListShoppingCenters(ctx)
		if err != nil {
			logger.Error("warm-up fetch failed", "error", err)
			return
		}
		if _, err := pipeline.ResolveAll(ctx, properties); err != nil {
			logger.Error("warm-up resolution failed", "error", err)
		}
	}()

	// Optional Kafka cache warmer.
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
		w := warmer.New(reader, backendClient, res, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("cache warmer error", "error", err)
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
	if sqliteStore != nil {
		if err := sqliteStore.Close(); err != nil {
			logger.Error("cache store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
