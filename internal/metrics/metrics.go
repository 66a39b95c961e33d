// package metrics exposes Prometheus collectors for search sessions, TMDB requests and the HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/moviex/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moviex"

// Metrics owns a private registry and every collector the application reports.
//
// It satisfies search.Recorder, so a session can report request lifecycle events directly.
type Metrics struct {
	registry *prometheus.Registry

	SearchesIssued    prometheus.Counter
	SearchesCancelled prometheus.Counter
	SearchesStale     prometheus.Counter
	SearchesFailed    prometheus.Counter

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SearchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_issued_total",
			Help:      "Search requests sent to the movie provider.",
		}),
		SearchesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_cancelled_total",
			Help:      "In-flight search requests superseded or reset before completing.",
		}),
		SearchesStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_responses_stale_total",
			Help:      "Search responses discarded because a newer request was issued.",
		}),
		SearchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_failed_total",
			Help:      "Current search requests that ended in an error or timeout.",
		}),

		ProviderRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total TMDB requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "TMDB request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"}),

		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of TMDB response cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of TMDB response cache misses.",
		}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SearchesIssued,
		m.SearchesCancelled,
		m.SearchesStale,
		m.SearchesFailed,
		m.ProviderRequestsTotal,
		m.ProviderRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry returns the registry backing [Metrics.Handler].
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RequestIssued()    { m.SearchesIssued.Inc() }
func (m *Metrics) RequestCancelled() { m.SearchesCancelled.Inc() }
func (m *Metrics) ResponseStale()    { m.SearchesStale.Inc() }
func (m *Metrics) RequestFailed()    { m.SearchesFailed.Inc() }

// ObserveProvider records one TMDB request. It matches services.RequestObserver.
//
// A status of 0 means the request never produced a response.
func (m *Metrics) ObserveProvider(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.ProviderRequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.ProviderRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// InstrumentCache wraps cache so lookups count toward the hit and miss counters.
// A nil cache stays nil.
func (m *Metrics) InstrumentCache(cache services.ResponseCache) services.ResponseCache {
	if cache == nil {
		return nil
	}
	return &instrumentedCache{next: cache, metrics: m}
}

type instrumentedCache struct {
	next    services.ResponseCache
	metrics *Metrics
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, ok, err := c.next.Get(ctx, key)
	if err == nil && ok {
		c.metrics.CacheHitsTotal.Inc()
	} else {
		c.metrics.CacheMissesTotal.Inc()
	}
	return body, ok, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.next.Set(ctx, key, body, ttl)
}
