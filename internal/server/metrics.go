package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "booksearch"

// Metrics holds application metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Upload metrics
	uploads          prometheus.Counter
	uploadBytes      prometheus.Counter
	uploadErrors     *prometheus.CounterVec
	documentsIndexed prometheus.Counter
	uploadDuration   prometheus.Histogram

	// Search metrics
	searches       prometheus.Counter
	searchErrors   prometheus.Counter
	searchResults  prometheus.Histogram
	searchDuration prometheus.Histogram
}

// NewMetrics registers the service collectors on reg. A nil reg gets a
// fresh registry with the Go and process collectors attached.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		uploads: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_total",
			Help:      "Uploads stored and indexed.",
		}),
		uploadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by successful uploads.",
		}),
		uploadErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_errors_total",
			Help:      "Rejected or failed uploads by reason.",
		}, []string{"reason"}),
		documentsIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_indexed_total",
			Help:      "Text documents extracted and indexed.",
		}),
		uploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upload_duration_seconds",
			Help:      "Time to store and index an upload.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		searches: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "searches_total",
			Help:      "Search queries answered.",
		}),
		searchErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_errors_total",
			Help:      "Search queries that failed.",
		}),
		searchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_results",
			Help:      "Results returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_duration_seconds",
			Help:      "Search query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(route string, statusCode int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordUpload records a successful upload
func (m *Metrics) RecordUpload(bytes int64, documents int, elapsed time.Duration) {
	m.uploads.Inc()
	m.uploadBytes.Add(float64(bytes))
	m.documentsIndexed.Add(float64(documents))
	m.uploadDuration.Observe(elapsed.Seconds())
}

// RecordUploadError records an upload error
func (m *Metrics) RecordUploadError(reason string) {
	m.uploadErrors.WithLabelValues(reason).Inc()
}

// RecordSearch records an answered search and its result count.
func (m *Metrics) RecordSearch(results int, elapsed time.Duration) {
	m.searches.Inc()
	m.searchResults.Observe(float64(results))
	m.searchDuration.Observe(elapsed.Seconds())
}

// RecordSearchError records a failed search.
func (m *Metrics) RecordSearchError() {
	m.searchErrors.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// routeLabel keeps the route label bounded to the paths the server serves.
func routeLabel(path string) string {
	switch path {
	case "/", "/upload", "/search", "/health", "/ready", "/live", "/metrics", "/app.js", "/style.css":
		return path
	}
	if strings.HasPrefix(path, "/webui/") {
		return "/webui/"
	}
	return "other"
}
