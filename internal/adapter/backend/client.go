// Package backend consumes the portfolio REST API that owns shopping-center
// records. It is the property source for the resolution pipeline.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/plazaview/property-geocode-service/internal/domain"
)

// Client fetches shopping centers from the dashboard backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend API client rooted at baseURL
// (e.g. "https://dashboard.internal").
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListShoppingCenters returns every property record, following pagination.
func (c *Client) ListShoppingCenters(ctx context.Context) ([]domain.Property, error) {
	var properties []domain.Property

	next := c.baseURL + "/api/shopping-centers/"
	for next != "" {
		var page listResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list shopping centers: %w", err)
		}
		for _, rec := range page.Results {
			properties = append(properties, rec.toProperty())
		}
		if page.Next == nil {
			break
		}
		next = *page.Next
	}

	c.logger.Debug("fetched shopping centers", "count", len(properties))
	return properties, nil
}

// GetShoppingCenter returns a single property record by id.
func (c *Client) GetShoppingCenter(ctx context.Context, id int64) (domain.Property, error) {
	var rec record
	url := fmt.Sprintf("%s/api/shopping-centers/%d/", c.baseURL, id)
	if err := c.getJSON(ctx, url, &rec); err != nil {
		return domain.Property{}, fmt.Errorf("get shopping center %d: %w", id, err)
	}
	return rec.toProperty(), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Backend wire types. The API paginates Django-style and serializes decimal
// coordinates as strings, sometimes null, occasionally garbage from old CSV
// imports.

type listResponse struct {
	Next    *string  `json:"next"`
	Results []record `json:"results"`
}

type record struct {
	ID        int64      `json:"id"`
	Name      string     `json:"shopping_center_name"`
	Street    string     `json:"address_street"`
	City      string     `json:"address_city"`
	State     string     `json:"address_state"`
	Zip       string     `json:"address_zip"`
	Latitude  coordinate `json:"latitude"`
	Longitude coordinate `json:"longitude"`
}

func (r record) toProperty() domain.Property {
	return domain.Property{
		ID:        r.ID,
		Name:      r.Name,
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		Zip:       r.Zip,
		Latitude:  float64(r.Latitude),
		Longitude: float64(r.Longitude),
	}
}

// coordinate decodes a backend coordinate that may arrive as a JSON number,
// a quoted decimal string, null, or unparseable text. Anything unusable
// decodes to zero, which downstream treats as "no backend coordinate" and
// resolves through the cache/provider instead.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	*c = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*c = coordinate(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	*c = coordinate(f)
	return nil
}
