package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/plazaview/property-geocode-service/internal/adapter/http"
	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/resolver"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockPipeline struct {
	report resolver.Report
	err    error
	got    []domain.Property
}

func (m *mockPipeline) ResolveAll(_ context.Context, properties []domain.Property) (resolver.Report, error) {
	m.got = properties
	return m.report, m.err
}

type mockCache struct {
	size      int
	keys      []string
	cleared   bool
	preloaded map[string]domain.Result
}

func (m *mockCache) Size() int       { return m.size }
func (m *mockCache) Keys() []string  { return m.keys }
func (m *mockCache) Clear()          { m.cleared = true }
func (m *mockCache) Preload(entries map[string]domain.Result) {
	m.preloaded = entries
}

func newTestServer(pipeline *mockPipeline, cache *mockCache, readyErr error) *httpadapter.Server {
	if pipeline == nil {
		pipeline = &mockPipeline{}
	}
	if cache == nil {
		cache = &mockCache{}
	}
	return httpadapter.NewServer(":0", pipeline, cache, &mockReadiness{err: readyErr}, slog.Default())
}

func doRequest(srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	srv.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestResolve_ReturnsReport(t *testing.T) {
	pipeline := &mockPipeline{report: resolver.Report{
		Properties: []domain.GeocodedProperty{{
			Property: domain.Property{ID: 1, Name: "Granite Run Mall", Latitude: 39.9168, Longitude: -75.3879},
			Geocoded: true,
			Source:   domain.SourceAPI,
		}},
		FailedNames: []string{"Mystery Center"},
		Counts:      resolver.Counts{Total: 2, Resolved: 1, FromAPI: 1, Failed: 1},
	}}
	srv := newTestServer(pipeline, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/v1/resolve",
		`{"properties": [{"id": 1, "name": "Granite Run Mall"}, {"id": 2, "name": "Mystery Center"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pipeline.got, 2)

	var report resolver.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Counts.Total)
	assert.Equal(t, []string{"Mystery Center"}, report.FailedNames)
	require.Len(t, report.Properties, 1)
	assert.Equal(t, domain.SourceAPI, report.Properties[0].Source)
}

func TestResolve_EmptyBodyRejected(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/v1/resolve", `{"properties": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/v1/resolve", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolve_PipelineError(t *testing.T) {
	pipeline := &mockPipeline{err: errors.New("boom")}
	srv := newTestServer(pipeline, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/v1/resolve", `{"properties": [{"id": 1}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCacheStats(t *testing.T) {
	cache := &mockCache{size: 2, keys: []string{"key-a", "key-b"}}
	srv := newTestServer(nil, cache, nil)

	rec := doRequest(srv, http.MethodGet, "/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Size int      `json:"size"`
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Size)
	assert.Equal(t, []string{"key-a", "key-b"}, body.Keys)
}

func TestCacheClear(t *testing.T) {
	cache := &mockCache{}
	srv := newTestServer(nil, cache, nil)

	rec := doRequest(srv, http.MethodDelete, "/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cache.cleared)
}

func TestCachePreload_SkipsFailedEntries(t *testing.T) {
	cache := &mockCache{}
	srv := newTestServer(nil, cache, nil)

	rec := doRequest(srv, http.MethodPost, "/v1/cache/preload", `{
		"entries": {
			"good key": {"latitude": 39.9, "longitude": -75.3, "success": true},
			"bad key": {"latitude": 0, "longitude": 0, "success": false}
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, cache.preloaded, 1)
	assert.Contains(t, cache.preloaded, "good key")

	var body struct {
		Loaded  int `json:"loaded"`
		Skipped int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Loaded)
	assert.Equal(t, 1, body.Skipped)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := doRequest(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil, nil)

	rec := doRequest(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(nil, nil, errors.New("still warming up"))

	rec := doRequest(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "still warming up", body["error"])
}
