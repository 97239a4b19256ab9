package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Backend API the property records come from.
	BackendBaseURL string
	BackendTimeout time.Duration

	// Google geocoding configuration. An empty key is allowed: the service
	// still serves backend and cached coordinates, it just cannot resolve
	// anything new.
	GoogleAPIKey   string
	GeocodeTimeout time.Duration

	// Geocode cache persistence. Empty disables durable persistence.
	CachePath string

	BatchSize  int
	BatchDelay time.Duration

	// Optional Kafka cache warmer.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	backendTimeout, err := parseDuration("BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchDelay, err := parseDuration("BATCH_DELAY", "200ms")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("BATCH_SIZE", 10)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BackendBaseURL: envOrDefault("BACKEND_BASE_URL", "http://localhost:8000"),
		BackendTimeout: backendTimeout,

		GoogleAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		GeocodeTimeout: geocodeTimeout,

		CachePath: envOrDefault("CACHE_PATH", "geocode-cache.db"),

		BatchSize:  batchSize,
		BatchDelay: batchDelay,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "property-updates"),
		KafkaGroupID: envOrDefault("KAFKA_GROUP_ID", "property-geocode-service"),
	}

	if cfg.BackendBaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
