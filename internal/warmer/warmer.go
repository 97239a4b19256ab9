// Package warmer keeps the geocode cache hot by resolving properties as soon
// as the backend announces a record change, instead of waiting for the next
// full map load.
package warmer

import (
	"context"
	"log/slog"
	"time"

	"github.com/plazaview/property-geocode-service/internal/domain"
)

// Source yields property-update notifications.
type Source interface {
	Extract(ctx context.Context) (domain.PropertyUpdate, error)
}

// PropertyFetcher loads a single property record from the backend.
type PropertyFetcher interface {
	GetShoppingCenter(ctx context.Context, id int64) (domain.Property, error)
}

// PropertyResolver resolves one property, populating the cache on success.
type PropertyResolver interface {
	ResolveOne(ctx context.Context, p domain.Property) (domain.GeocodedProperty, bool)
}

// Warmer consumes updates and pre-resolves the affected properties.
type Warmer struct {
	source   Source
	fetcher  PropertyFetcher
	resolver PropertyResolver
	logger   *slog.Logger
}

// New creates a Warmer.
func New(source Source, fetcher PropertyFetcher, resolver PropertyResolver, logger *slog.Logger) *Warmer {
	return &Warmer{
		source:   source,
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger,
	}
}

// Run consumes updates until the context is cancelled.
func (w *Warmer) Run(ctx context.Context) error {
	w.logger.Info("cache warmer started")

	// Exponential backoff for source errors: start at 200ms, double each
	// retry, cap at 5s. Avoids tight loops during broker outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cache warmer stopping", "reason", ctx.Err())
			return nil
		default:
		}

		update, err := w.source.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("extract property update failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		w.handleUpdate(ctx, update)
	}
}

// handleUpdate resolves one updated property and acknowledges the message.
// Failures are committed too: the warmer is an optimization, and the next
// full pipeline run retries anything it missed.
func (w *Warmer) handleUpdate(ctx context.Context, update domain.PropertyUpdate) {
	if update.Action == "deleted" {
		w.commit(ctx, update)
		return
	}

	prop, err := w.fetcher.GetShoppingCenter(ctx, update.PropertyID)
	if err != nil {
		w.logger.Warn("fetch updated property failed",
			"property_id", update.PropertyID,
			"error", err,
		)
		w.commit(ctx, update)
		return
	}

	if _, ok := w.resolver.ResolveOne(ctx, prop); !ok {
		w.logger.Warn("warm resolution failed",
			"property_id", prop.ID,
			"name", prop.DisplayName(),
		)
	} else {
		w.logger.Debug("cache warmed", "property_id", prop.ID)
	}
	w.commit(ctx, update)
}

func (w *Warmer) commit(ctx context.Context, update domain.PropertyUpdate) {
	if update.Commit == nil {
		return
	}
	if err := update.Commit(ctx); err != nil {
		w.logger.Warn("commit property update failed",
			"property_id", update.PropertyID,
			"error", err,
		)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
