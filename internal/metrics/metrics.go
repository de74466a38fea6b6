package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts API requests by method, route and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records API request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// WebhookAttempts counts delivery attempts by event type and outcome
	WebhookAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_attempts_total", Help: "Webhook delivery attempts by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks outbound call latency in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_attempt_latency_ms", Help: "Webhook attempt latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000}},
		[]string{"event_type", "status"},
	)
	// WebhookChains counts chains reaching a terminal state
	WebhookChains = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_chains_total", Help: "Delivery chains by terminal state."},
		[]string{"state"},
	)
	// RetryQueueDepth is the number of chains waiting for their next attempt
	RetryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "webhook_retry_queue_depth", Help: "Chains waiting for a retry."},
	)
	// StoreErrors counts delivery log writes that failed after retries
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_store_errors_total", Help: "Delivery log writes that failed after retries."},
		[]string{"operation"},
	)
	// LogsDeleted counts delivery log rows removed by retention
	LogsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "webhook_logs_deleted_total", Help: "Delivery log rows removed by retention."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry, once
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(WebhookAttempts)
		Registry.MustRegister(WebhookLatency)
		Registry.MustRegister(WebhookChains)
		Registry.MustRegister(RetryQueueDepth)
		Registry.MustRegister(StoreErrors)
		Registry.MustRegister(LogsDeleted)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveAttempt records one finished delivery attempt
func ObserveAttempt(eventType, status string, latency time.Duration) {
	WebhookAttempts.WithLabelValues(eventType, status).Inc()
	WebhookLatency.WithLabelValues(eventType, status).Observe(float64(latency.Milliseconds()))
}
