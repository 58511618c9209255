package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/ingestion-service/internal/metrics"
)

const defaultTimeout = 3 * time.Second

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// BreakerConfig controls when publishing short-circuits.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// KafkaPublisher sends telemetry events keyed by device id, bounded by a timeout and a circuit breaker.
type KafkaPublisher struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaPublisher returns publisher.
func NewKafkaPublisher(writer MessageWriter, breaker *gobreaker.CircuitBreaker[struct{}], timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &KafkaPublisher{
		writer:  writer,
		breaker: breaker,
		timeout: timeout,
		logger:  logger,
	}
}

// NewCircuitBreaker opens after FailureThreshold consecutive publish failures and probes again after OpenTimeout.
func NewCircuitBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[struct{}] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-publish",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publish breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if to == gobreaker.StateOpen {
				metrics.BreakerOpen.Set(1)
			} else {
				metrics.BreakerOpen.Set(0)
			}
		},
	})
}

// Publish writes the event to the broker. Any failure, including the timeout and an open breaker,
// is reported as telemetry.ErrBrokerUnavailable.
func (p *KafkaPublisher) Publish(ctx context.Context, event telemetry.Recorded) error {
	payload, err := telemetry.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.EventID, err)
	}

	msg := kafka.Message{
		Key:   event.PartitionKey(),
		Value: payload,
		Time:  event.RecordedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(telemetry.ContentType)},
			{Key: "event-id", Value: []byte(event.EventID.String())},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(writeCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", telemetry.ErrBrokerUnavailable, err)
	}
	return nil
}

// Available reports false while the breaker is open.
func (p *KafkaPublisher) Available() bool {
	return p.breaker.State() != gobreaker.StateOpen
}
