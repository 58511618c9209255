package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempstream_projection_events_total",
			Help: "Consumed telemetry events by outcome",
		},
		[]string{"outcome"}, // "initialized", "applied", "stale"
	)

	OutOfOrder = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_projection_out_of_order_total",
			Help: "Events older than the projection they arrived at",
		},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_projection_persist_failures_total",
			Help: "Events left uncommitted because the projection could not be read or written",
		},
	)

	PoisonMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_projection_poison_messages_total",
			Help: "Undecodable messages committed without processing",
		},
	)

	Rejoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_projection_consumer_rejoins_total",
			Help: "Consumer group rejoins after a handling failure",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempstream_projection_cache_errors_total",
			Help: "Failed cache operations",
		},
		[]string{"op"}, // "get", "set"
	)
)

// RecordEvent counts a consumed event outcome.
func RecordEvent(outcome string) {
	Events.WithLabelValues(outcome).Inc()
}

// RecordCacheError counts a failed cache operation.
func RecordCacheError(op string) {
	CacheErrors.WithLabelValues(op).Inc()
}
