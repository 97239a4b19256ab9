// Package geocache holds resolved coordinates keyed by normalized address.
//
// The store is the only shared mutable state touched by concurrent batch
// workers, so all map access is guarded by a single mutex. Writes go through
// synchronously to the persistence adapter (write-through) so a crash loses
// at most the entry being written, never the whole cache. A failed persist is
// logged and absorbed: a lost durable entry is reconstructible by re-geocoding,
// corrupted in-memory state is not.
package geocache

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/observability"
)

// Persister serializes the full cache to durable storage and back.
type Persister interface {
	Load() (map[string]domain.Result, error)
	Save(entries map[string]domain.Result) error
}

// Store is an in-memory address→coordinate cache with write-through
// persistence. Construct once at startup and inject into the resolver.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]domain.Result
	persister Persister
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewStore creates a Store primed from the persister. Any load failure is
// recoverable: the store starts empty and logs a warning. Pass a nil
// persister for a purely in-memory store.
func NewStore(persister Persister, metrics *observability.Metrics, logger *slog.Logger) *Store {
	s := &Store{
		entries:   make(map[string]domain.Result),
		persister: persister,
		metrics:   metrics,
		logger:    logger,
	}
	if persister == nil {
		return s
	}
	entries, err := persister.Load()
	if err != nil {
		logger.Warn("geocode cache load failed, starting empty", "error", err)
		return s
	}
	s.entries = entries
	s.metrics.CacheEntries.Set(float64(len(entries)))
	logger.Info("geocode cache loaded", "entries", len(entries))
	return s
}

// Get returns the cached result for an address key. No side effects.
func (s *Store) Get(key string) (domain.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[key]
	return r, ok
}

// Put inserts or overwrites one entry and writes the cache through to
// durable storage. Callers only pass successful results; failures are never
// cached so a transient provider outage can be retried.
func (s *Store) Put(key string, result domain.Result) {
	s.mu.Lock()
	s.entries[key] = result
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

// Preload merges entries into the cache and persists once. Administrative
// hook for seeding from a prior export and for tests.
func (s *Store) Preload(entries map[string]domain.Result) {
	s.mu.Lock()
	for k, v := range entries {
		s.entries[k] = v
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

// Clear empties the cache, in memory and durably.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]domain.Result)
	s.mu.Unlock()

	s.persist(map[string]domain.Result{})
}

// Size returns the number of cached addresses.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns all cached address keys in sorted order for diagnostics.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) snapshotLocked() map[string]domain.Result {
	snapshot := make(map[string]domain.Result, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	return snapshot
}

func (s *Store) persist(snapshot map[string]domain.Result) {
	s.metrics.CacheEntries.Set(float64(len(snapshot)))
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(snapshot); err != nil {
		s.metrics.CachePersistErrors.Inc()
		s.logger.Warn("geocode cache persist failed", "error", err, "entries", len(snapshot))
	}
}
