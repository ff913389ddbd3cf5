// Package observability exposes Prometheus metrics for the HTTP surface.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the request-level collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	switchesTotal   *prometheus.CounterVec
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identityswitcher_http_requests_total",
			Help: "HTTP requests by method, path, and status class.",
		}, []string{"method", "path", "status_class"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "identityswitcher_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		switchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identityswitcher_switches_total",
			Help: "Identity switches by outcome (switched, logoff, error).",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	path = normalizePath(path)
	m.requestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSwitch records one identity switch outcome.
func (m *Metrics) ObserveSwitch(outcome string) {
	m.switchesTotal.WithLabelValues(outcome).Inc()
}

// statusClass buckets an HTTP status code into 2xx..5xx. Codes at or above
// 500 always count as 5xx; unknown low codes report "unknown".
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}

// normalizePath caps label cardinality for unusually long paths.
func normalizePath(path string) string {
	if len(path) > 50 {
		return "long_path"
	}
	return path
}
