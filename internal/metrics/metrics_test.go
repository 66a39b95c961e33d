package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moviex/internal/search"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ search.Recorder          = (*Metrics)(nil)
	_ services.RequestObserver = New().ObserveProvider
)

type stubCache struct {
	entries map[string][]byte
	err     error
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	body, ok := c.entries[key]
	return body, ok, nil
}

func (c *stubCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	c.entries[key] = body
	return nil
}

func TestRecorder(t *testing.T) {
	m := New()

	m.RequestIssued()
	m.RequestIssued()
	m.RequestCancelled()
	m.ResponseStale()
	m.RequestFailed()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"issued", testutil.ToFloat64(m.SearchesIssued), 2},
		{"cancelled", testutil.ToFloat64(m.SearchesCancelled), 1},
		{"stale", testutil.ToFloat64(m.SearchesStale), 1},
		{"failed", testutil.ToFloat64(m.SearchesFailed), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestObserveProvider(t *testing.T) {
	m := New()

	m.ObserveProvider("/search/movie", 200, 120*time.Millisecond)
	m.ObserveProvider("/search/movie", 200, 80*time.Millisecond)
	m.ObserveProvider("/movie/{id}", 404, 50*time.Millisecond)
	m.ObserveProvider("/movie/{id}", 0, time.Second)

	if got := testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("/search/movie", "200")); got != 2 {
		t.Errorf("search 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("/movie/{id}", "error")); got != 1 {
		t.Errorf("transport error count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.ProviderRequestDuration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/search", 200, 10*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/api/search", 502, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/search", "502")); got != 1 {
		t.Errorf("502 count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 2 {
		t.Errorf("expected 2 request series, got %d", got)
	}
}

func TestInstrumentCache(t *testing.T) {
	t.Run("counts hits and misses", func(t *testing.T) {
		m := New()
		cache := m.InstrumentCache(&stubCache{entries: map[string][]byte{}})

		if _, ok, _ := cache.Get(context.Background(), "k"); ok {
			t.Fatal("expected miss on empty cache")
		}
		if err := cache.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		body, ok, err := cache.Get(context.Background(), "k")
		if err != nil || !ok || string(body) != "v" {
			t.Fatalf("Get = %q, %v, %v", body, ok, err)
		}

		if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
			t.Errorf("hits = %v, want 1", got)
		}
		if got := testutil.ToFloat64(m.CacheMissesTotal); got != 1 {
			t.Errorf("misses = %v, want 1", got)
		}
	})

	t.Run("errors count as misses", func(t *testing.T) {
		m := New()
		cache := m.InstrumentCache(&stubCache{err: errors.New("connection refused")})

		if _, _, err := cache.Get(context.Background(), "k"); err == nil {
			t.Fatal("expected error to pass through")
		}
		if got := testutil.ToFloat64(m.CacheMissesTotal); got != 1 {
			t.Errorf("misses = %v, want 1", got)
		}
	})

	t.Run("nil cache", func(t *testing.T) {
		if New().InstrumentCache(nil) != nil {
			t.Error("expected nil for a nil cache")
		}
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RequestIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	output := string(body)

	for _, want := range []string{
		"moviex_search_requests_issued_total 1",
		"moviex_search_responses_stale_total 0",
		"go_goroutines",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
