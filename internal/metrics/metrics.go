// Package metrics defines the Prometheus collectors shared across the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote engine metrics
var (
	// VotesTotal tracks vote toggles by target and transition
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Total vote toggles by target (comment/post) and transition (added/removed/switched)",
		},
		[]string{"target", "transition"},
	)

	// VotesDebounced tracks votes suppressed by the debouncer
	VotesDebounced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_debounced_total",
			Help: "Total votes suppressed by the per-user debounce window",
		},
	)

	// VoteToggleDuration tracks the toggle transaction latency in seconds
	VoteToggleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vote_toggle_duration_seconds",
			Help:    "Vote toggle transaction duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Notification pipeline metrics
var (
	// NotificationsFannedOut tracks notification rows created by fan-out
	NotificationsFannedOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_fanned_out_total",
			Help: "Notification rows created by fan-out, by notification type",
		},
		[]string{"type"},
	)

	// NotificationFanOutIncomplete counts fan-outs that wrote fewer rows than requested
	NotificationFanOutIncomplete = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_fanout_incomplete_total",
			Help: "Fan-outs that created fewer notification rows than requested",
		},
	)

	// NotificationEventsPublished tracks change-feed events published to Redis
	NotificationEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_events_published_total",
			Help: "Notification events published to the change feed, by kind and status",
		},
		[]string{"kind", "status"},
	)

	// NotificationEmailsSent tracks emails dispatched by the email channel
	NotificationEmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_sent_total",
			Help: "Notification emails dispatched, by status",
		},
		[]string{"status"},
	)

	// NotificationsPurged tracks rows deleted by the retention purge
	NotificationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_purged_total",
			Help: "Read notification rows deleted by the retention purge",
		},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks database query latency by query name
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
			Help: "Total database errors by query name",
		},
		[]string{"query"},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// WebSocket hub metrics
var (
	// HubActiveRecipients tracks recipients with at least one live connection
	HubActiveRecipients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_recipients",
			Help: "Recipients with at least one connected WebSocket client",
		},
	)

	// HubConnectedClients tracks total connected WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Total connected WebSocket clients",
		},
	)

	// HubSlowClientDisconnects tracks clients dropped for not keeping up
	HubSlowClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_client_disconnects_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// HubCommandChannelDepth tracks the hub actor's command backlog
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current depth of the hub command channel",
		},
	)

	// HubPanics tracks recovered panics in the hub actor goroutine
	HubPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Panics recovered in the hub goroutine",
		},
	)

	// HubStopTimeouts tracks forced hub shutdowns
	HubStopTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub shutdowns that exceeded the graceful stop timeout",
		},
	)

	// WebSocketMessageSendDuration tracks per-message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message write duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "WebSocket keepalive pings that failed to send",
		},
	)
)

// Maintenance metrics
var (
	// PurgeRunsTotal tracks retention purge executions
	PurgeRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "purge_runs_total",
			Help: "Notification retention purge executions",
		},
	)

	// PurgeDurationSeconds tracks purge run duration
	PurgeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "purge_duration_seconds",
			Help:    "Notification retention purge duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
	)
)
