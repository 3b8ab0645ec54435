package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks total WebSocket connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/error/rejected)",
		},
		[]string{"result"},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/per_ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks WebSocket message send duration
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)

	// WebSocketIdleDisconnects tracks connections closed for inactivity
	WebSocketIdleDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_idle_disconnects_total",
			Help: "Total WebSocket connections closed due to idle timeout",
		},
	)
)

// Collaboration Hub Metrics
var (
	// HubActiveProjects tracks number of projects with at least one joined channel
	HubActiveProjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_projects",
			Help: "Number of projects with at least one joined channel",
		},
	)

	// HubMessagesTotal tracks inbound hub messages by type
	HubMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_messages_total",
			Help: "Total inbound hub messages by type (join_project/leave_project/code_change/unknown/malformed)",
		},
		[]string{"type"},
	)

	// HubBroadcastsTotal tracks code-change fan-outs performed
	HubBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total code-change broadcasts fanned out",
		},
	)

	// HubSlowClientsEvicted tracks number of slow clients evicted
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total slow WebSocket clients evicted due to full send buffer",
		},
	)
)

// AI Pipeline Metrics
var (
	// AIRequestsTotal tracks AI completion calls by operation and result
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total AI completion requests by operation and result (ok/parse_error/service_error)",
		},
		[]string{"operation", "result"},
	)

	// AIRequestDuration tracks AI completion call latency
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI completion request duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// AIRateLimitedTotal tracks AI requests rejected by the rate limiter
	AIRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_rate_limited_total",
			Help: "Total AI requests rejected by the per-user rate limiter",
		},
	)
)

// Redis Metrics
var (
	// RedisCircuitBreakerState tracks the breaker state (0=closed, 1=half-open, 2=open)
	RedisCircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_circuit_breaker_state",
			Help: "Current Redis circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// RedisCircuitBreakerStateChanges tracks breaker transitions by target state
	RedisCircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_circuit_breaker_state_changes_total",
			Help: "Total Redis circuit breaker state transitions by new state",
		},
		[]string{"state"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTP Error Metrics
// Note: http_errors_total{type} is provided by internal/errors package
