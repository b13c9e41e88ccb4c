package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quadwarp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Homography metrics
	estimateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_estimate_total",
			Help: "Total number of homography estimations",
		},
		[]string{"source", "status"}, // source: http, map, warp, session; status: success, configuration, singular
	)

	mappedPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_mapped_points_total",
			Help: "Total number of points mapped through a homography",
		},
		[]string{"status"}, // status: success, degenerate
	)

	warpDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadwarp_warp_duration_seconds",
			Help:    "Image warp duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	warpOutputPixels = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadwarp_warp_output_pixels",
			Help:    "Number of pixels in warped output images",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadwarp_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quadwarp_websocket_active_sessions",
			Help: "Number of active scene sessions",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
