// Package hotels proxies hotel lookups to the Booking.com API on RapidAPI.
package hotels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	config "github.com/phillip/travel-planner-go/config"
)

var ErrNotConfigured = errors.New("hotel provider not configured")

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hotel provider error (%d): %s", e.Status, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
}

func NewClient(cfg config.HotelsConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Provider parameters filled in when the caller leaves them out.
var (
	searchDefaults = map[string]string{
		"locale":             "en-gb",
		"units":              "metric",
		"order_by":           "popularity",
		"filter_by_currency": "USD",
		"room_number":        "1",
		"adults_number":      "2",
		"dest_type":          "city",
		"page_number":        "0",
	}
	hotelDefaults = map[string]string{"locale": "en-gb"}
)

// SearchDestinations resolves free text to provider destination ids.
func (c *Client) SearchDestinations(ctx context.Context, query string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("locale", "en-gb")
	return c.get(ctx, "/v1/hotels/locations", params)
}

// SearchHotels forwards the caller's query parameters to the search endpoint.
func (c *Client) SearchHotels(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/v1/hotels/search", withDefaults(params, searchDefaults))
}

// GetHotel returns the provider's detail record of one hotel.
func (c *Client) GetHotel(ctx context.Context, hotelID string, params url.Values) (json.RawMessage, error) {
	params = withDefaults(params, hotelDefaults)
	params.Set("hotel_id", hotelID)
	return c.get(ctx, "/v1/hotels/data", params)
}

func withDefaults(params url.Values, defaults map[string]string) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = v
	}
	for k, v := range defaults {
		if out.Get(k) == "" {
			out.Set(k, v)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build hotel request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hotel request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read hotel response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if !json.Valid(body) {
		return nil, errors.New("hotel provider returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
