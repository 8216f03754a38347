// Package metrics exposes scan instrumentation as Prometheus collectors:
// request outcomes from the request engine and confirmed findings from
// the detection pipeline. Each scan run gets its own registry so counts
// never bleed between scans.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlscout/sqlscout/pkg/finding"
)

// Collector holds the scan's Prometheus instruments. It implements
// requester.Observer for per-request outcomes.
type Collector struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	findings *prometheus.CounterVec
}

// New creates a collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlscout",
			Name:      "requests_total",
			Help:      "Probe requests by status class and error kind.",
		}, []string{"status_class", "error_kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sqlscout",
			Name:      "request_duration_seconds",
			Help:      "Probe round-trip time.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlscout",
			Name:      "findings_total",
			Help:      "Confirmed findings by technique and severity.",
		}, []string{"type", "severity"}),
	}
	c.registry.MustRegister(c.requests, c.latency, c.findings)
	return c
}

// ObserveRequest records one completed probe.
func (c *Collector) ObserveRequest(status int, elapsed time.Duration, errKind string) {
	if errKind == "" {
		errKind = "none"
	}
	c.requests.WithLabelValues(statusClass(status), errKind).Inc()
	if elapsed > 0 {
		c.latency.Observe(elapsed.Seconds())
	}
}

// ObserveFinding records one confirmed finding.
func (c *Collector) ObserveFinding(f finding.Finding) {
	c.findings.WithLabelValues(f.Type, string(f.Severity)).Inc()
}

// Registry returns the collector's registry for embedding.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the scan's metrics in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
