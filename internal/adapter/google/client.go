// Package google implements domain.Geocoder against the Google Maps
// Geocoding API.
package google

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/observability"
)

// Client is a pure external-call wrapper: it never touches the geocode cache
// and never returns an error. Provider rejections, transport failures, and a
// missing API key all flatten to Result{OK:false} carrying the input address.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Google Maps geocoding client. An empty apiKey is
// allowed; every call then fails fast without a network round trip.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a free-text address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) domain.Result {
	failed := domain.Result{FormattedAddress: address}

	if c.apiKey == "" {
		c.metrics.GeocodeRequests.WithLabelValues("no_key").Inc()
		c.logger.Warn("geocoding skipped, no API key configured", "address", address)
		return failed
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding request build failed", "address", address, "error", err)
		return failed
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding request failed", "address", address, "error", err)
		return failed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding provider rejected request", "address", address, "status_code", resp.StatusCode)
		return failed
	}

	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding response decode failed", "address", address, "error", err)
		return failed
	}

	// Any status other than OK (ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED,
	// ...) is a failed resolution. No retry here: failures are never cached, so
	// the next pipeline run simply tries again.
	if gr.Status != "OK" || len(gr.Results) == 0 {
		outcome := "error"
		if gr.Status == "ZERO_RESULTS" || (gr.Status == "OK" && len(gr.Results) == 0) {
			outcome = "no_match"
		}
		c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
		c.logger.Warn("geocoding returned no usable result",
			"address", address,
			"status", gr.Status,
			"error_message", gr.ErrorMessage,
		)
		return failed
	}

	c.metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	first := gr.Results[0]
	return domain.Result{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
		OK:               true,
	}
}

// Google Maps Geocoding API response types.

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, ...
	ErrorMessage string `json:"error_message,omitempty"`
}
