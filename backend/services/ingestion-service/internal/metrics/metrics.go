package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempstream_ingestion_submissions_total",
			Help: "Telemetry submissions by outcome",
		},
		[]string{"outcome"}, // "accepted", "validation", "duplicate", "store_unavailable"
	)

	Published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempstream_ingestion_published_total",
			Help: "Events published to the broker by path",
		},
		[]string{"path"}, // "direct", "replay"
	)

	FallbackStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_ingestion_fallback_stored_total",
			Help: "Events diverted to the fallback store after a publish failure",
		},
	)

	ReplayFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tempstream_ingestion_replay_failures_total",
			Help: "Replay runs stopped early by a publish or delete failure",
		},
	)

	FallbackBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempstream_ingestion_fallback_backlog",
			Help: "Events waiting in the fallback store after the last replay run",
		},
	)

	BreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tempstream_ingestion_publish_breaker_open",
			Help: "1 while the publish circuit breaker is open",
		},
	)
)

// RecordSubmission counts a submission outcome.
func RecordSubmission(outcome string) {
	Submissions.WithLabelValues(outcome).Inc()
}

// RecordPublished counts an event that reached the broker.
func RecordPublished(path string) {
	Published.WithLabelValues(path).Inc()
}
