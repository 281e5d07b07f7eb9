package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	stageRunsTotal     *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	modelReady         *prometheus.GaugeVec
	breakerOpen        *prometheus.GaugeVec
	extractionsTotal   *prometheus.CounterVec
	datasetRecords     prometheus.Gauge
	keywordsPerRequest *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kwi",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwi",
			Subsystem: "stage",
			Name:      "runs_total",
			Help:      "Total analysis stage runs by outcome.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwi",
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Analysis stage duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "stage"},
	)
	modelReady := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kwi",
			Subsystem: "model",
			Name:      "ready",
			Help:      "1 when the model backing a stage is loaded, 0 otherwise.",
		},
		[]string{"service", "stage", "model"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kwi",
			Subsystem: "model",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker for a model operation is open.",
		},
		[]string{"service", "operation"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwi",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total extraction requests by source and result.",
		},
		[]string{"service", "source", "result"},
	)
	datasetRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kwi",
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Records held in the session dataset.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	keywordsPerRequest := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwi",
			Subsystem: "extraction",
			Name:      "keywords",
			Help:      "Keywords returned per successful extraction.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 30, 50},
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		stageRunsTotal,
		stageDuration,
		modelReady,
		breakerOpen,
		extractionsTotal,
		datasetRecords,
		keywordsPerRequest,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		stageRunsTotal:     stageRunsTotal,
		stageDuration:      stageDuration,
		modelReady:         modelReady,
		breakerOpen:        breakerOpen,
		extractionsTotal:   extractionsTotal,
		datasetRecords:     datasetRecords,
		keywordsPerRequest: keywordsPerRequest,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var knownPaths = map[string]struct{}{
	"/":                    {},
	"/healthz":             {},
	"/readyz":              {},
	"/metrics":             {},
	"/openapi.json":        {},
	"/extract":             {},
	"/extract_pdf":         {},
	"/v1/extract":          {},
	"/v1/extract/document": {},
	"/v1/dataset":          {},
	"/v1/dataset/export":   {},
}

// normalizePath keeps label cardinality bounded.
func normalizePath(path string) string {
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return "other"
}

// ObserveStage records one stage outcome.
func (m *HTTPServerMetrics) ObserveStage(stage domain.StageKind, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.stageRunsTotal.WithLabelValues(m.service, string(stage), status).Inc()
	m.stageDuration.WithLabelValues(m.service, string(stage)).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) SetReadiness(items []domain.StageReadiness) {
	for _, item := range items {
		value := 0.0
		if item.Ready {
			value = 1
		}
		m.modelReady.WithLabelValues(m.service, string(item.Stage), item.Model).Set(value)
	}
}

// SetBreakerOpen tracks resilience breaker transitions for model calls.
func (m *HTTPServerMetrics) SetBreakerOpen(operation string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(value)
}

// RecordExtraction counts one request; source is "text" or "document",
// result is "ok" or an error class.
func (m *HTTPServerMetrics) RecordExtraction(source, result string, ruleKeywords, mlKeywords int) {
	m.extractionsTotal.WithLabelValues(m.service, source, result).Inc()
	if result != "ok" {
		return
	}
	m.keywordsPerRequest.WithLabelValues(m.service, "rule").Observe(float64(ruleKeywords))
	m.keywordsPerRequest.WithLabelValues(m.service, "ml").Observe(float64(mlKeywords))
}

func (m *HTTPServerMetrics) SetDatasetSize(n int) {
	m.datasetRecords.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
