// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RoomsResolvedTotal tracks room resolutions, split by outcome.
	RoomsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rooms_resolved_total",
			Help: "Room resolutions by outcome (created, existing)",
		},
		[]string{"outcome"},
	)

	// MessagesAppendedTotal tracks messages appended per author role.
	MessagesAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Total messages appended",
		},
		[]string{"role"},
	)

	// SubscriptionsActive tracks live room subscriptions (SSE and internal).
	SubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_subscriptions_active",
			Help: "Number of active room subscriptions",
		},
	)

	// PushAttemptsTotal tracks push dispatch attempts by outcome
	// (sent, no_token, provider_error, drop).
	PushAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_attempts_total",
			Help: "Push dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// PushDuration tracks push provider round-trip duration.
	PushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_duration_seconds",
			Help:    "Push provider request duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// NotificationRecordsTotal tracks in-app notification records written.
	NotificationRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_records_total",
			Help: "Total in-app notification records written",
		},
	)

	// DispatchIntegrityErrors counts messages whose author was not a member
	// of the room they were appended to. Should stay at zero.
	DispatchIntegrityErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_integrity_errors_total",
			Help: "Messages appended by a non-participant observed at dispatch",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// IncrementSubscriptions increments the active subscription count.
func IncrementSubscriptions() {
	SubscriptionsActive.Inc()
}

// DecrementSubscriptions decrements the active subscription count.
func DecrementSubscriptions() {
	SubscriptionsActive.Dec()
}
