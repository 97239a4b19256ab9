package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/observability"
)

const (
	// DefaultBatchSize bounds concurrent provider calls per batch.
	DefaultBatchSize = 10
	// DefaultBatchDelay is the pause between consecutive batches, keeping
	// the external call rate under the provider ceiling.
	DefaultBatchDelay = 200 * time.Millisecond
)

// Counts aggregates one pipeline run for observability. Provenance counts are
// a reporting convenience; consumers must not branch on them.
type Counts struct {
	Total       int `json:"total"`
	Resolved    int `json:"successful"`
	FromBackend int `json:"fromBackend"`
	FromCache   int `json:"fromCache"`
	FromAPI     int `json:"fromApi"`
	Failed      int `json:"failed"`
}

// Report is the outcome of one ResolveAll run. Every input property appears
// exactly once: either in Properties or, by display name, in FailedNames.
type Report struct {
	Properties  []domain.GeocodedProperty `json:"properties"`
	FailedNames []string                  `json:"failed"`
	Counts      Counts                    `json:"counts"`
}

// Pipeline drives the Resolver over property lists in fixed-size concurrent
// batches with a timed gate between batches.
type Pipeline struct {
	resolver   *Resolver
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
	ready      atomic.Bool
	batchSize  int
	batchDelay time.Duration
}

// CheckReadiness returns nil once at least one pipeline run has completed,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// NewPipeline creates a Pipeline. batchSize and batchDelay fall back to the
// defaults when non-positive. The clock is injected so the inter-batch gate
// is testable without real timers.
func NewPipeline(r *Resolver, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger, batchSize int, batchDelay time.Duration) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = DefaultBatchDelay
	}
	return &Pipeline{
		resolver:   r,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// ResolveAll converts a property list into map-ready points. Batches run in
// input order; within a batch, resolutions fan out concurrently and land in
// per-index slots, so overall output order follows input order. The error is
// non-nil only on context cancellation, in which case partial results are
// discarded; entries already cached stay cached, which is harmless.
func (p *Pipeline) ResolveAll(ctx context.Context, properties []domain.Property) (Report, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	report := Report{
		Properties:  make([]domain.GeocodedProperty, 0, len(properties)),
		FailedNames: []string{},
		Counts:      Counts{Total: len(properties)},
	}

	for offset := 0; offset < len(properties); offset += p.batchSize {
		end := min(offset+p.batchSize, len(properties))
		batch := properties[offset:end]
		p.metrics.BatchSize.Observe(float64(len(batch)))

		results := make([]*domain.GeocodedProperty, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, prop := range batch {
			g.Go(func() error {
				if gp, ok := p.resolver.ResolveOne(gctx, prop); ok {
					results[i] = &gp
				}
				return nil
			})
		}
		g.Wait() //nolint:errcheck // workers never return errors

		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}

		for i, res := range results {
			if res == nil {
				report.FailedNames = append(report.FailedNames, batch[i].DisplayName())
				report.Counts.Failed++
				continue
			}
			report.Properties = append(report.Properties, *res)
			switch res.Source {
			case domain.SourceBackend:
				report.Counts.FromBackend++
			case domain.SourceCache:
				report.Counts.FromCache++
			case domain.SourceAPI:
				report.Counts.FromAPI++
			}
		}

		// Rate gate between batches, skipped after the final one.
		if end < len(properties) {
			select {
			case <-ctx.Done():
				return Report{}, ctx.Err()
			case <-p.clock.After(p.batchDelay):
			}
		}
	}

	report.Counts.Resolved = len(report.Properties)
	p.ready.Store(true)
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("pipeline run complete",
		"total", report.Counts.Total,
		"resolved", report.Counts.Resolved,
		"from_backend", report.Counts.FromBackend,
		"from_cache", report.Counts.FromCache,
		"from_api", report.Counts.FromAPI,
		"failed", report.Counts.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}
