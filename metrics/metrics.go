// Package metrics provides Prometheus metrics for the Bento MCP server.
// It tracks tool calls, Bento API traffic, name resolution and HTTP transport health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "bento_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// APILatency measures Bento API call latency by resource and action
	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "api_latency_seconds",
		Help:      "Bento API call latency by resource and action",
		Buckets:   prometheus.DefBuckets,
	}, []string{"resource", "action"})

	// APIRequestsTotal counts Bento API requests
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_requests_total",
		Help:      "Total Bento API requests by resource, action and status",
	}, []string{"resource", "action", "status"})

	// APIErrors counts Bento API errors by HTTP status or error class
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_errors_total",
		Help:      "Bento API errors by resource, action and error code",
	}, []string{"resource", "action", "error_code"})

	// APIRetries counts transport-level retries
	APIRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_retries_total",
		Help:      "Bento API request retries",
	})

	// CircuitState reports the breaker state (0 closed, 1 open, 2 half-open)
	CircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "circuit_state",
		Help:      "Bento API circuit breaker state (0=closed, 1=open, 2=half-open)",
	})

	// RateLimitWaits counts outbound requests that waited for the API budget
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Bento API requests that waited for the rate limiter",
	})

	// RateLimitRejections counts inbound HTTP requests rejected by the per-IP limiter
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "HTTP requests rejected due to rate limiting",
	})

	// AuthFailures counts HTTP transport authentication failures
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication failure count by reason",
	}, []string{"reason"})

	// HTTPRequestsTotal counts HTTP transport requests
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	// HTTPRequestDuration measures HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	// ResolverPages counts listing pages fetched per name resolution
	ResolverPages = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "resolver_pages_fetched",
		Help:      "Listing pages fetched per name resolution",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"resource"})

	// ResolverOutcomes counts name resolutions by outcome
	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "resolver_outcomes_total",
		Help:      "Name resolutions by resource and outcome (id, name, not_found, error)",
	}, []string{"resource", "outcome"})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, status(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a Bento API call
func RecordAPICall(resource, action string, duration float64, success bool, errorCode string) {
	APIRequestsTotal.WithLabelValues(resource, action, status(success)).Inc()
	APILatency.WithLabelValues(resource, action).Observe(duration)
	if errorCode != "" {
		APIErrors.WithLabelValues(resource, action, errorCode).Inc()
	}
}

// RecordResolution records the outcome of a name resolution
func RecordResolution(resource, outcome string, pages int) {
	ResolverOutcomes.WithLabelValues(resource, outcome).Inc()
	ResolverPages.WithLabelValues(resource).Observe(float64(pages))
}

// SetCircuitState updates the circuit breaker gauge
func SetCircuitState(state int) {
	CircuitState.Set(float64(state))
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
