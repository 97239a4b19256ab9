// Package http exposes the resolution pipeline and cache administration over
// HTTP, plus health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/resolver"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ResolveService runs the batch resolution pipeline.
type ResolveService interface {
	ResolveAll(ctx context.Context, properties []domain.Property) (resolver.Report, error)
}

// CacheAdmin exposes the maintenance surface of the geocode cache.
type CacheAdmin interface {
	Size() int
	Keys() []string
	Clear()
	Preload(entries map[string]domain.Result)
}

// Server exposes the resolve API, cache admin, and operational endpoints.
type Server struct {
	httpServer *http.Server
	pipeline   ResolveService
	cache      CacheAdmin
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, pipeline ResolveService, cache CacheAdmin, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pipeline: pipeline,
		cache:    cache,
		logger:   logger,
	}

	mux.HandleFunc("POST /v1/resolve", s.handleResolve)
	mux.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("DELETE /v1/cache", s.handleCacheClear)
	mux.HandleFunc("POST /v1/cache/preload", s.handleCachePreload)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type resolveRequest struct {
	Properties []domain.Property `json:"properties"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if len(req.Properties) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "properties is required"})
		return
	}

	report, err := s.pipeline.ResolveAll(r.Context(), req.Properties)
	if err != nil {
		// Only context cancellation reaches here; the client went away.
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("resolve request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "resolution failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"size": s.cache.Size(),
		"keys": s.cache.Keys(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	s.logger.Info("geocode cache cleared by operator request")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type preloadRequest struct {
	Entries map[string]domain.Result `json:"entries"`
}

func (s *Server) handleCachePreload(w http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	// Only successful results belong in the cache.
	accepted := make(map[string]domain.Result, len(req.Entries))
	for key, result := range req.Entries {
		if result.OK {
			accepted[key] = result
		}
	}
	s.cache.Preload(accepted)
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":  len(accepted),
		"skipped": len(req.Entries) - len(accepted),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
