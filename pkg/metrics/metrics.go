package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campushub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// NotificationsDispatched counts persisted notification fan-outs by urgency.
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campushub_notifications_dispatched_total",
			Help: "Total number of notifications persisted by the dispatcher",
		},
		[]string{"urgency"},
	)

	// PushDelivered counts realtime push events handed to live sessions.
	PushDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campushub_push_delivered_total",
			Help: "Total number of realtime push events enqueued for delivery",
		},
	)

	// PushDropped counts realtime push events dropped because the recipient
	// session was offline or backpressured.
	PushDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campushub_push_dropped_total",
			Help: "Total number of realtime push events dropped",
		},
	)

	// ContestRegistrations counts registration attempts by outcome
	// (accepted|closed|full|duplicate|error).
	ContestRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campushub_contest_registrations_total",
			Help: "Total number of contest registration attempts",
		},
		[]string{"result"},
	)

	// PaymentVerifications counts payment verification attempts by outcome
	// (completed|invalid_signature|not_found|error).
	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campushub_payment_verifications_total",
			Help: "Total number of payment verification attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campushub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
