package metrics

import (
	"context"
	"time"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// On-demand metrics
	ExceptionsTotal *prometheus.CounterVec
	ReportsTotal    *prometheus.CounterVec

	// Upload metrics
	UploadsTotal   *prometheus.CounterVec
	UploadDuration *prometheus.HistogramVec

	namespace string
	factory   promauto.Factory
}

// New creates a new Metrics instance registered with the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered with reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "ondemand"
	}
	factory := promauto.With(reg)

	return &Metrics{
		namespace: namespace,
		factory:   factory,

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// On-demand metrics
		ExceptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "on_demand",
				Name:      "exceptions_total",
				Help:      "Total number of on-demand exceptions by outcome",
			},
			[]string{"result"}, // recorded, dropped
		),
		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "on_demand",
				Name:      "reports_total",
				Help:      "Total number of report state changes",
			},
			[]string{"event"}, // stored, uploaded, deleted
		),

		// Upload metrics
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "requests_total",
				Help:      "Total number of report uploads",
			},
			[]string{"priority", "status"},
		),
		UploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "duration_seconds",
				Help:      "Report upload duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"priority"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpload records a report upload attempt.
func (m *Metrics) RecordUpload(urgent bool, err error, duration time.Duration) {
	priority := "normal"
	if urgent {
		priority = "urgent"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.UploadsTotal.WithLabelValues(priority, status).Inc()
	m.UploadDuration.WithLabelValues(priority).Observe(duration.Seconds())
}

// RegisterQueueDepth exposes the on-demand queue depth as a gauge read from fn.
func (m *Metrics) RegisterQueueDepth(fn func() int64) {
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "on_demand",
			Name:      "queued_operations",
			Help:      "Number of on-demand operations holding quota",
		},
		func() float64 { return float64(fn()) },
	)
}

// EventHandler counts on-demand events.
func (m *Metrics) EventHandler() events.Handler {
	return events.NewHandlerFunc(
		[]string{
			events.TypeExceptionRecorded,
			events.TypeExceptionDropped,
			events.TypeReportStored,
			events.TypeReportUploaded,
			events.TypeReportDeleted,
		},
		func(ctx context.Context, e events.Event) error {
			switch e.EventType() {
			case events.TypeExceptionRecorded:
				m.ExceptionsTotal.WithLabelValues("recorded").Inc()
			case events.TypeExceptionDropped:
				m.ExceptionsTotal.WithLabelValues("dropped").Inc()
			case events.TypeReportStored:
				m.ReportsTotal.WithLabelValues("stored").Inc()
			case events.TypeReportUploaded:
				m.ReportsTotal.WithLabelValues("uploaded").Inc()
			case events.TypeReportDeleted:
				m.ReportsTotal.WithLabelValues("deleted").Inc()
			}
			return nil
		},
	)
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
