// Command resolve runs the coordinate-resolution pipeline once and prints the
// report as JSON. Properties come either from a JSON fixture file or from the
// dashboard backend.
//
// Usage:
//
//	go run ./cmd/resolve -input testdata/portfolio.json -cache geocode-cache.db
//	go run ./cmd/resolve -backend http://localhost:8000
//
// The Google API key is read from GOOGLE_MAPS_API_KEY. Without it, only
// backend and cached coordinates resolve.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/plazaview/property-geocode-service/internal/adapter/backend"
	"github.com/plazaview/property-geocode-service/internal/adapter/google"
	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/geocache"
	"github.com/plazaview/property-geocode-service/internal/observability"
	"github.com/plazaview/property-geocode-service/internal/resolver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	input := flag.String("input", "", "path to a JSON file containing an array of properties")
	backendURL := flag.String("backend", "", "base URL of the dashboard backend to fetch properties from")
	cachePath := flag.String("cache", "geocode-cache.db", "path to the geocode cache database; empty disables persistence")
	batchSize := flag.Int("batch-size", resolver.DefaultBatchSize, "properties resolved concurrently per batch")
	batchDelay := flag.Duration("delay", resolver.DefaultBatchDelay, "pause between batches")
	geocodeTimeout := flag.Duration("geocode-timeout", 5*time.Second, "per-request geocoding timeout")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if (*input == "") == (*backendURL == "") {
		flag.Usage()
		return fmt.Errorf("exactly one of -input or -backend is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(*logLevel, "text")
	metrics := observability.NewMetrics()

	var persister geocache.Persister
	if *cachePath != "" {
		store, err := geocache.OpenSQLite(*cachePath)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer store.Close()
		persister = store
	}
	cache := geocache.NewStore(persister, metrics, logger)

	properties, err := loadProperties(ctx, *input, *backendURL, logger)
	if err != nil {
		return err
	}

	geocoder := google.NewClient(os.Getenv("GOOGLE_MAPS_API_KEY"), *geocodeTimeout, metrics, logger)
	res := resolver.New(cache, geocoder, metrics, logger)
	pipeline := resolver.NewPipeline(res, clockwork.NewRealClock(), metrics, logger, *batchSize, *batchDelay)

	report, err := pipeline.ResolveAll(ctx, properties)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(out))

	if len(report.FailedNames) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d properties could not be resolved:\n",
			len(report.FailedNames), report.Counts.Total)
		for _, name := range report.FailedNames {
			fmt.Fprintf(os.Stderr, "  - %s\n", name)
		}
	}
	return nil
}

func loadProperties(ctx context.Context, input, backendURL string, logger *slog.Logger) ([]domain.Property, error) {
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		var properties []domain.Property
		if err := json.Unmarshal(data, &properties); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		return properties, nil
	}

	client := backend.NewClient(backendURL, 30*time.Second, logger)
	return client.ListShoppingCenters(ctx)
}
