package hotels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	config "github.com/phillip/travel-planner-go/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.HotelsConfig{BaseURL: srv.URL + "/", APIKey: "key", Host: "booking.test", Timeout: 2 * time.Second})
}

func TestSearchDestinationsSendsHeaders(t *testing.T) {
	var gotPath, gotKey, gotHost, gotName string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		gotName = r.URL.Query().Get("name")
		w.Write([]byte(`[{"dest_id":"-2140479","name":"Lisbon"}]`))
	})

	data, err := c.SearchDestinations(context.Background(), "Lisbon")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/v1/hotels/locations" || gotKey != "key" || gotHost != "booking.test" || gotName != "Lisbon" {
		t.Fatalf("unexpected request path=%q key=%q host=%q name=%q", gotPath, gotKey, gotHost, gotName)
	}
	if string(data) != `[{"dest_id":"-2140479","name":"Lisbon"}]` {
		t.Fatalf("expected provider body passed through, got %s", data)
	}
}

func TestSearchHotelsKeepsCallerParams(t *testing.T) {
	var q url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		w.Write([]byte(`{"result":[]}`))
	})

	params := url.Values{"dest_id": {"-2140479"}, "adults_number": {"3"}}
	if _, err := c.SearchHotels(context.Background(), params); err != nil {
		t.Fatalf("search: %v", err)
	}
	if q.Get("dest_id") != "-2140479" || q.Get("adults_number") != "3" || q.Get("locale") != "en-gb" {
		t.Fatalf("unexpected query %v", q)
	}
	if params.Get("locale") != "" {
		t.Fatalf("caller params must not be mutated")
	}
}

func TestProviderErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.GetHotel(context.Background(), "123", nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status error, got %v", err)
	}

	unconfigured := NewClient(config.HotelsConfig{BaseURL: "http://localhost"})
	if _, err := unconfigured.SearchDestinations(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
