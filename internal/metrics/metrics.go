// Package metrics provides Prometheus metrics for the NPS dashboard server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "npsmentor"
	subsystem = "dashboard"
)

// Manager owns every collector registered by the dashboard.
type Manager struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loadFailures    *prometheus.CounterVec
	recordsLoaded   prometheus.Counter
	recordsRejected prometheus.Counter
	rowsFiltered    prometheus.Histogram
}

// Custom registry to keep Go runtime collectors out of the dashboard scrape.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry

var globalManager = NewManager(customRegistry) //nolint:gochecknoglobals // singleton metrics manager

// NewManager registers the dashboard collectors on reg.
func NewManager(reg *prometheus.Registry) *Manager {
	auto := promauto.With(reg)
	m := &Manager{registry: reg}

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request latency in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"route", "method", "status"})

	m.loadFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "load_failures_total",
		Help:      "Dataset loads that failed, by reason",
	}, []string{"reason"})

	m.recordsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_loaded_total",
		Help:      "Records accepted from uploaded or opened files",
	})

	m.recordsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_rejected_total",
		Help:      "Rows rejected during column normalization",
	})

	m.rowsFiltered = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "report_rows_filtered",
		Help:      "Rows matching the filter of each built report",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
	return m
}

// RecordHTTPRequest records one served request and its latency.
func RecordHTTPRequest(route, method, status string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(route, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(route, method, status).Observe(durationMs)
}

// RecordLoadFailure counts a failed dataset load.
func RecordLoadFailure(reason string) {
	globalManager.loadFailures.WithLabelValues(reason).Inc()
}

// RecordLoad counts accepted and rejected rows of a successful load.
func RecordLoad(accepted, rejected int) {
	globalManager.recordsLoaded.Add(float64(accepted))
	globalManager.recordsRejected.Add(float64(rejected))
}

// RecordRowsFiltered observes the filtered row count of a report.
func RecordRowsFiltered(n int) {
	globalManager.rowsFiltered.Observe(float64(n))
}

// GetRegistry returns the registry holding the dashboard metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the dashboard registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
