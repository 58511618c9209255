package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/projection-service/internal/metrics"
)

const defaultRejoinBackoff = 2 * time.Second

// MessageReader is a consumer-group member. *kafka.Reader satisfies it.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderFactory joins the consumer group with a fresh member.
type ReaderFactory func() MessageReader

// Handler processes one decoded event and commits its offset when done.
type Handler interface {
	OnEvent(ctx context.Context, event telemetry.Recorded, offset Offset) (Outcome, error)
}

type messageOffset struct {
	reader MessageReader
	msg    kafka.Message
}

func (o messageOffset) Commit(ctx context.Context) error {
	return o.reader.CommitMessages(ctx, o.msg)
}

// Runner feeds broker messages to the handler, one partition stream per member.
type Runner struct {
	newReader ReaderFactory
	handler   Handler
	consumers int
	backoff   time.Duration
	logger    *zap.Logger
}

// NewRunner returns runner with consumers group members.
func NewRunner(newReader ReaderFactory, handler Handler, consumers int, backoff time.Duration, logger *zap.Logger) *Runner {
	if consumers <= 0 {
		consumers = 1
	}
	if backoff <= 0 {
		backoff = defaultRejoinBackoff
	}
	return &Runner{
		newReader: newReader,
		handler:   handler,
		consumers: consumers,
		backoff:   backoff,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.consumers; i++ {
		logger := r.logger.With(zap.Int("member", i))
		g.Go(func() error { return r.consume(ctx, logger) })
	}
	return g.Wait()
}

// consume keeps one group member alive. After a failure the reader is closed and a new one
// joins, which restarts delivery from the last committed offset of each assigned partition.
func (r *Runner) consume(ctx context.Context, logger *zap.Logger) error {
	for {
		reader := r.newReader()
		err := r.session(ctx, reader, logger)
		if closeErr := reader.Close(); closeErr != nil {
			logger.Warn("failed to close reader", zap.Error(closeErr))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		metrics.Rejoins.Inc()
		logger.Warn("consumer failed, rejoining group", zap.Duration("backoff", r.backoff), zap.Error(err))

		timer := time.NewTimer(r.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Runner) session(ctx context.Context, reader MessageReader, logger *zap.Logger) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch message: %w", err)
		}
		offset := messageOffset{reader: reader, msg: msg}

		event, err := telemetry.Unmarshal(msg.Value)
		if err != nil {
			metrics.PoisonMessages.Inc()
			logger.Error("skipping undecodable message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			if err := offset.Commit(ctx); err != nil {
				return fmt.Errorf("commit poison message: %w", err)
			}
			continue
		}

		if _, err := r.handler.OnEvent(ctx, event, offset); err != nil {
			return fmt.Errorf("handle event %s at partition %d offset %d: %w", event.EventID, msg.Partition, msg.Offset, err)
		}
	}
}
