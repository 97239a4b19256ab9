package google

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plazaview/property-geocode-service/internal/observability"
)

const (
	testKey     = "test-api-key"
	testAddress = "1067 W Baltimore Pike, Media, PA 19063"
)

func testClient(baseURL, key string) *Client {
	return &Client{
		apiKey:     key,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAddress, r.URL.Query().Get("address"))
		assert.Equal(t, testKey, r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "1067 W Baltimore Pike, Media, PA 19063, USA",
				"geometry": {"location": {"lat": 39.9168, "lng": -75.3879}}
			}]
		}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), testAddress)

	require.True(t, result.OK)
	assert.Equal(t, 39.9168, result.Latitude)
	assert.Equal(t, -75.3879, result.Longitude)
	assert.Equal(t, "1067 W Baltimore Pike, Media, PA 19063, USA", result.FormattedAddress)
}

func TestGeocode_FirstResultWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"formatted_address": "first", "geometry": {"location": {"lat": 1, "lng": 2}}},
				{"formatted_address": "second", "geometry": {"location": {"lat": 3, "lng": 4}}}
			]
		}`))
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), testAddress)

	require.True(t, result.OK)
	assert.Equal(t, "first", result.FormattedAddress)
	assert.Equal(t, float64(1), result.Latitude)
}

func TestGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), "nowhere at all")

	assert.False(t, result.OK)
	assert.Equal(t, "nowhere at all", result.FormattedAddress, "failed result echoes the input address")
	assert.Zero(t, result.Latitude)
	assert.Zero(t, result.Longitude)
}

func TestGeocode_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "results": [], "error_message": "quota exceeded"}`))
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), testAddress)
	assert.False(t, result.OK)
}

func TestGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), testAddress)
	assert.False(t, result.OK)
}

func TestGeocode_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	result := testClient(srv.URL, testKey).Geocode(context.Background(), testAddress)
	assert.False(t, result.OK)
}

func TestGeocode_MissingKeySkipsNetworkCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	result := testClient(srv.URL, "").Geocode(context.Background(), testAddress)

	assert.False(t, result.OK)
	assert.Equal(t, testAddress, result.FormattedAddress)
	assert.Zero(t, calls, "no doomed network call without a credential")
}

func TestGeocode_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := testClient(srv.URL, testKey).Geocode(ctx, testAddress)
	assert.False(t, result.OK)
}
