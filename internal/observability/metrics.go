// Package observability holds the Prometheus metrics for report queries and
// the HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_window"
	OutcomeUnavailable = "store_unavailable"
)

// Collector owns a private registry so tests can build as many as they need.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Reports           *prometheus.CounterVec
	ReportDuration    prometheus.Histogram
	ReportTabs        prometheus.Histogram
	IntervalAnomalies prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Activity reports built, by outcome",
			},
			[]string{"outcome"},
		),
		ReportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Time to build an activity report",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ReportTabs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_tabs",
				Help:      "Tabs per activity report",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		IntervalAnomalies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interval_anomalies_total",
				Help:      "Active intervals clamped because they were malformed",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.Reports,
		c.ReportDuration,
		c.ReportTabs,
		c.IntervalAnomalies,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveReport records one report attempt.
func (c *Collector) ObserveReport(outcome string, tabs int, d time.Duration) {
	if c == nil {
		return
	}
	c.Reports.WithLabelValues(outcome).Inc()
	c.ReportDuration.Observe(d.Seconds())
	if outcome == OutcomeOK {
		c.ReportTabs.Observe(float64(tabs))
	}
}

// IntervalAnomaly counts a clamped interval.
func (c *Collector) IntervalAnomaly() {
	if c == nil {
		return
	}
	c.IntervalAnomalies.Inc()
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
