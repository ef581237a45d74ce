package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the backend
type Metrics struct {
	registry *prometheus.Registry

	ChatRequests   *prometheus.CounterVec
	ChatDuration   prometheus.Histogram
	ImagesStored   prometheus.Counter
	EngineRetries  prometheus.Counter
	ArtifactCache  *prometheus.GaugeVec
	ReceiptRecords prometheus.Gauge
}

// New creates and registers the backend metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expense_chat_requests_total",
			Help: "Chat requests by outcome",
		}, []string{"outcome"}),
		ChatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "expense_chat_duration_seconds",
			Help:    "End-to-end chat request duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ImagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_images_stored_total",
			Help: "Receipt images stored as artifacts",
		}),
		EngineRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expense_engine_retries_total",
			Help: "Retried calls to the agent engine",
		}),
		ArtifactCache: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "expense_artifact_cache_lookups",
			Help: "Artifact cache lookups by result",
		}, []string{"result"}),
		ReceiptRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expense_receipt_records",
			Help: "Receipt records currently persisted",
		}),
	}

	registry.MustRegister(
		m.ChatRequests,
		m.ChatDuration,
		m.ImagesStored,
		m.EngineRetries,
		m.ArtifactCache,
		m.ReceiptRecords,
	)

	return m
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
