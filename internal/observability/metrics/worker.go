package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// Archive outcomes. Rejected records are malformed and will never succeed.
const (
	ArchiveStatusArchived = "archived"
	ArchiveStatusRejected = "rejected"
	ArchiveStatusFailed   = "failed"
)

// WorkerMetrics instruments the archive worker.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	archiveTotal    *prometheus.CounterVec
	archiveDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	recordAge       prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	labels := prometheus.Labels{"service": service}
	m := &WorkerMetrics{
		registry: prometheus.NewRegistry(),
		service:  service,
		archiveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kwi",
			Subsystem: "worker",
			Name:      "archive_total",
			Help:      "Extraction records handled by the archive worker, by outcome.",
		}, []string{"service", "status"}),
		archiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kwi",
			Subsystem: "worker",
			Name:      "archive_duration_seconds",
			Help:      "Time spent persisting one record, by outcome.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"service", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kwi",
			Subsystem:   "worker",
			Name:        "archive_in_flight",
			Help:        "Records currently being persisted.",
			ConstLabels: labels,
		}),
		recordAge: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "kwi",
			Subsystem:   "worker",
			Name:        "record_age_seconds",
			Help:        "Delay between extraction and the start of archiving.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.archiveTotal, m.archiveDuration, m.inFlight, m.recordAge)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartRecord marks a record in flight and observes how long it waited since
// extraction. Call FinishRecord with the returned start time.
func (m *WorkerMetrics) StartRecord(record domain.ExtractionRecord) time.Time {
	m.inFlight.Inc()
	now := time.Now()
	if !record.CreatedAt.IsZero() {
		if age := now.Sub(record.CreatedAt); age >= 0 {
			m.recordAge.Observe(age.Seconds())
		}
	}
	return now
}

func (m *WorkerMetrics) FinishRecord(start time.Time, err error) {
	m.inFlight.Dec()
	status := archiveStatus(err)
	m.archiveTotal.WithLabelValues(m.service, status).Inc()
	m.archiveDuration.WithLabelValues(m.service, status).Observe(time.Since(start).Seconds())
}

func archiveStatus(err error) string {
	switch {
	case err == nil:
		return ArchiveStatusArchived
	case domain.IsKind(err, domain.ErrInvalidInput):
		return ArchiveStatusRejected
	default:
		return ArchiveStatusFailed
	}
}
