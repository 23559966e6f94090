package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_uploads_total",
			Help: "Uploaded files by content type and outcome.",
		},
		[]string{"content_type", "outcome"},
	)

	ImageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_processing_duration_seconds",
			Help:    "Time spent decoding, resizing and encoding one upload.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"content_type"},
	)

	ObjectStorageCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "object_storage_circuit_state",
			Help: "Object storage circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)

	ReorderOperationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_reorder_operations_total",
			Help: "Applied collection order index updates.",
		},
	)
)
