package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// coordinate-resolution pipeline.
type Metrics struct {
	Resolutions        *prometheus.CounterVec // labels: source={backend,cache,api}
	ResolutionFailures prometheus.Counter
	PipelineRunning    prometheus.Gauge
	BatchSize          prometheus.Histogram
	PipelineDuration   prometheus.Histogram

	// Geocoding provider metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={ok,no_match,error,no_key}
	GeocodeAPIDuration prometheus.Histogram

	// Cache metrics.
	CacheEntries       prometheus.Gauge
	CachePersistErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Resolutions,
		m.ResolutionFailures,
		m.PipelineRunning,
		m.BatchSize,
		m.PipelineDuration,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.CacheEntries,
		m.CachePersistErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "property_geocode",
			Name:      "resolutions_total",
			Help:      "Successful coordinate resolutions by provenance.",
		}, []string{"source"}),
		ResolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "property_geocode",
			Name:      "resolution_failures_total",
			Help:      "Properties dropped because no coordinate could be resolved.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "property_geocode",
			Name:      "pipeline_running",
			Help:      "1 while a batch pipeline run is in flight.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "property_geocode",
			Name:      "batch_size",
			Help:      "Number of properties per concurrent batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "property_geocode",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "property_geocode",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider calls by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "property_geocode",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "property_geocode",
			Name:      "cache_entries",
			Help:      "Addresses currently held in the geocode cache.",
		}),
		CachePersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "property_geocode",
			Name:      "cache_persist_errors_total",
			Help:      "Failed write-through saves of the geocode cache.",
		}),
	}
}
