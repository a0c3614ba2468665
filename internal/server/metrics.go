package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the extraction server.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	sheetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollscan_sheet_requests_total",
			Help: "Total number of sheet extraction requests",
		},
		[]string{"type", "status"},
	)

	sheetProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollscan_sheet_processing_duration_seconds",
			Help:    "Sheet processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"type"},
	)

	sheetCards = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollscan_sheet_cards",
			Help:    "Number of cards extracted per sheet",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 250},
		},
		[]string{"type"},
	)

	sheetCardFailures = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollscan_sheet_card_failures",
			Help:    "Number of cards per sheet that failed OCR",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"type"},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollscan_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"type"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollscan_upload_size_bytes",
			Help:    "Size of uploaded sheet images in bytes",
			Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 52428800, 104857600},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollscan_websocket_connections",
			Help: "Number of active websocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollscan_websocket_messages_total",
			Help: "Total number of websocket messages",
		},
		[]string{"direction"},
	)
)
