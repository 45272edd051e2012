// Package metrics records upstream fetch history and exposes Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iotdash"

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Collectors owns a private registry so several instances can coexist in tests.
type Collectors struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API call latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Retried upstream API attempts.",
		}, []string{"endpoint"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Dashboard sessions currently held in memory.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (c *Collectors) observeFetch(endpoint string, elapsed time.Duration, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}

	c.requests.WithLabelValues(endpoint, outcome).Inc()
	c.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetSessions updates the active session gauge.
func (c *Collectors) SetSessions(n int) {
	c.sessionsActive.Set(float64(n))
}

// ObserveHTTP counts one served dashboard request.
func (c *Collectors) ObserveHTTP(route string, code int) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry is exposed for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
