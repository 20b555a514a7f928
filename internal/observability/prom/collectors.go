package prom

// Package prom exposes session-authority metrics in the Prometheus format. It implements
// statsd.Sink so the same emitters feed both backends.

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/target/quizgate/internal/observability/statsd"
)

const namespace = "quizgate"

// Collectors owns a dedicated registry so tests and multiple servers never collide
// on the global default registerer.
type Collectors struct {
	registry *prometheus.Registry

	LoginTotal       *prometheus.CounterVec
	VerifyTotal      *prometheus.CounterVec
	RateChecks       *prometheus.CounterVec
	RateStoreErrors  *prometheus.CounterVec
	ReaperRemoved    *prometheus.CounterVec
	HTTPRequestTotal *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

var _ statsd.Sink = (*Collectors)(nil)

// NewCollectors builds and registers every collector, plus the Go runtime and process collectors.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		LoginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		VerifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_verify_total",
			Help:      "Token verifications by result and failing stage.",
		}, []string{"result", "stage"}),
		RateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_checks_total",
			Help:      "Rate gate decisions by action and result.",
		}, []string{"action", "result"}),
		RateStoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_store_errors_total",
			Help:      "Rate counter store failures resolved by the failure policy.",
		}, []string{"action", "policy"}),
		ReaperRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_removed_total",
			Help:      "Expired entries removed by the reaper, per store.",
		}, []string{"store"}),
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.LoginTotal,
		c.VerifyTotal,
		c.RateChecks,
		c.RateStoreErrors,
		c.ReaperRemoved,
		c.HTTPRequestTotal,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry backing the collectors.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Handler serves the exposition format for the dedicated registry.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Count maps the statsd counter names used by the emitters onto collectors.
// Unknown names are ignored.
func (c *Collectors) Count(name string, value int64, tags map[string]string) {
	if c == nil || value <= 0 {
		return
	}
	v := float64(value)
	switch name {
	case "auth.login":
		c.LoginTotal.WithLabelValues(tags["result"]).Add(v)
	case "auth.verify":
		c.VerifyTotal.WithLabelValues(tags["result"], tags["stage"]).Add(v)
	case "ratelimit.check":
		c.RateChecks.WithLabelValues(tags["action"], tags["result"]).Add(v)
	case "ratelimit.store_error":
		c.RateStoreErrors.WithLabelValues(tags["action"], tags["policy"]).Add(v)
	case "reaper.removed":
		c.ReaperRemoved.WithLabelValues(tags["store"]).Add(v)
	case "http.request":
		c.HTTPRequestTotal.WithLabelValues(tags["method"], tags["route"], tags["status"]).Add(v)
	}
}

// Gauge is a no-op; no gauges are exported.
func (c *Collectors) Gauge(string, float64, map[string]string) {}

// Timing records request latency for "http.request.duration".
func (c *Collectors) Timing(name string, value time.Duration, tags map[string]string) {
	if c == nil {
		return
	}
	if name == "http.request.duration" {
		c.HTTPDuration.WithLabelValues(tags["method"], tags["route"]).Observe(value.Seconds())
	}
}

// StatusLabel formats an HTTP status for the status label.
func StatusLabel(code int) string { return strconv.Itoa(code) }
