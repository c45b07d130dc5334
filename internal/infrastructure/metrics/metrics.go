package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat gateway metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chat_ui",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "chat_ui",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	// Upstream deployment calls
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chat_ui",
			Name:      "upstream_requests_total",
			Help:      "Calls made to the upstream deployment",
		},
		[]string{"endpoint", "status"},
	)

	// Token refreshes against the identity provider
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chat_ui",
			Name:      "token_refresh_total",
			Help:      "Bearer token refreshes by result",
		},
		[]string{"result"},
	)

	// Bytes relayed from the upstream event stream
	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chat_ui",
			Name:      "stream_bytes_total",
			Help:      "Bytes relayed from upstream generation streams",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpstream records a call to the upstream deployment
func RecordUpstream(endpoint, status string) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordTokenRefresh records a token refresh outcome ("success" or "error")
func RecordTokenRefresh(result string) {
	TokenRefreshTotal.WithLabelValues(result).Inc()
}

// AddStreamBytes adds relayed stream bytes
func AddStreamBytes(n int) {
	if n <= 0 {
		return
	}
	StreamBytesTotal.Add(float64(n))
}
