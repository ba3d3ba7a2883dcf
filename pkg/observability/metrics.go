package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the binary-quantized index server.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Build metrics
	BuildsTotal       prometheus.Counter
	BuildDuration     prometheus.Histogram
	VectorsQuantized  prometheus.Counter
	QuantizedCodeSize prometheus.Gauge

	// Index metrics
	IndexSize      *prometheus.GaugeVec
	IndexDimension *prometheus.GaugeVec

	// Search metrics
	SearchesTotal    prometheus.Counter
	SearchLatency    prometheus.Histogram
	SearchRecall     prometheus.Histogram
	SearchResultSize prometheus.Histogram

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbq_requests_total",
				Help: "Total number of requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bbq_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		RequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbq_errors_total",
				Help: "Total number of request errors by method and error type",
			},
			[]string{"method", "error_type"},
		),

		BuildsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bbq_builds_total",
				Help: "Total number of index builds",
			},
		),
		BuildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bbq_build_duration_seconds",
				Help:    "Index build duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
		VectorsQuantized: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bbq_vectors_quantized_total",
				Help: "Total number of vectors quantized across all builds",
			},
		),
		QuantizedCodeSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bbq_quantized_code_size_bytes",
				Help: "Packed code size in bytes for the current dimension",
			},
		),

		IndexSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bbq_index_size",
				Help: "Number of vectors in the index",
			},
			[]string{"similarity"},
		),
		IndexDimension: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bbq_index_dimension",
				Help: "Vector dimension of the index",
			},
			[]string{"similarity"},
		),

		SearchesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bbq_searches_total",
				Help: "Total number of search operations",
			},
		),
		SearchLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bbq_search_duration_seconds",
				Help:    "Search latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		SearchRecall: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bbq_search_recall",
				Help:    "Measured recall@k, when ground truth is available (0-1)",
				Buckets: []float64{.2, .4, .5, .6, .7, .8, .9, .95, 1.0},
			},
		),
		SearchResultSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bbq_search_results_returned",
				Help:    "Number of results returned by search",
				Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
			},
		),

		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bbq_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bbq_memory_bytes",
				Help: "Memory usage in bytes",
			},
		),
	}
}

// RecordRequest records a request with duration and status.
func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(method, errorType string) {
	m.RequestErrors.WithLabelValues(method, errorType).Inc()
}

// RecordBuild records a completed index build.
func (m *Metrics) RecordBuild(similarity string, duration time.Duration, n, dim int) {
	m.BuildsTotal.Inc()
	m.BuildDuration.Observe(duration.Seconds())
	m.VectorsQuantized.Add(float64(n))
	m.QuantizedCodeSize.Set(float64((dim + 7) / 8))
	m.IndexSize.WithLabelValues(similarity).Set(float64(n))
	m.IndexDimension.WithLabelValues(similarity).Set(float64(dim))
}

// RecordSearch records a search operation.
func (m *Metrics) RecordSearch(duration time.Duration, resultSize int) {
	m.SearchesTotal.Inc()
	m.SearchLatency.Observe(duration.Seconds())
	m.SearchResultSize.Observe(float64(resultSize))
}

// RecordRecall records a measured recall@k sample, when ground truth is
// available to compare against (e.g. periodic offline evaluation).
func (m *Metrics) RecordRecall(recall float64) {
	m.SearchRecall.Observe(recall)
}

// UpdateGoroutineCount updates goroutine count.
func (m *Metrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates memory usage.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}
