package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector of the sourcing engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Engine metrics
	SyncRunsTotal       *prometheus.CounterVec
	SyncDuration        *prometheus.HistogramVec
	AdapterFallbacks    *prometheus.CounterVec
	CandidatesUpserted  *prometheus.CounterVec
	ImportsTotal        *prometheus.CounterVec
	SchedulerDueBacklog prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Use prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_sync_runs_total",
				Help: "Total number of integration sync runs",
			},
			[]string{"platform", "outcome"}, // success, error
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcing_sync_duration_seconds",
				Help:    "Duration of integration sync runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"platform"},
		),
		AdapterFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_adapter_fallbacks_total",
				Help: "Searches answered from fallback data",
			},
			[]string{"platform", "reason"}, // not_configured, timeout, unauthorized, status, error, disabled
		),
		CandidatesUpserted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_candidates_upserted_total",
				Help: "External candidates written by searches and syncs",
			},
			[]string{"platform", "result"}, // created, updated
		),
		ImportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcing_imports_total",
				Help: "Candidate import attempts",
			},
			[]string{"outcome"}, // success, conflict, error
		),
		SchedulerDueBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sourcing_scheduler_due_integrations",
			Help: "Integrations found due on the last scheduler tick",
		}),
		gatherer: reg,
	}
}

// Middleware records request count and latency for every gin route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordSync records one finished sync run
func (m *Metrics) RecordSync(platform string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.SyncRunsTotal.WithLabelValues(platform, outcome).Inc()
	m.SyncDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordFallback records a search served from fallback data
func (m *Metrics) RecordFallback(platform, reason string) {
	if m == nil {
		return
	}
	m.AdapterFallbacks.WithLabelValues(platform, reason).Inc()
}

// RecordUpsert records a candidate write
func (m *Metrics) RecordUpsert(platform string, created bool) {
	if m == nil {
		return
	}
	result := "updated"
	if created {
		result = "created"
	}
	m.CandidatesUpserted.WithLabelValues(platform, result).Inc()
}

// RecordImport records an import attempt outcome
func (m *Metrics) RecordImport(outcome string) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(outcome).Inc()
}

// SetDueBacklog records how many integrations were due on a tick
func (m *Metrics) SetDueBacklog(n int) {
	if m == nil {
		return
	}
	m.SchedulerDueBacklog.Set(float64(n))
}
