package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/ingestion-service/internal/metrics"
	"tempstream/backend/services/ingestion-service/internal/models"
)

const defaultPageSize = 100

// Source is the fallback store as seen by the replay worker.
type Source interface {
	ListOldest(ctx context.Context, limit int) ([]models.FallbackEvent, error)
	Delete(ctx context.Context, eventID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// Publisher sends events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event telemetry.Recorded) error
}

// Health reports whether the broker is worth trying.
type Health interface {
	Available() bool
}

// Report summarises one replay run. FirstFailureIndex is -1 when every attempt succeeded.
type Report struct {
	Attempted         int
	Succeeded         int
	FirstFailureIndex int
}

// Worker drains the fallback store back into the broker, oldest failure first.
type Worker struct {
	source    Source
	publisher Publisher
	health    Health
	interval  time.Duration
	pageSize  int
	logger    *zap.Logger
}

// NewWorker returns worker. health may be nil.
func NewWorker(source Source, publisher Publisher, health Health, interval time.Duration, pageSize int, logger *zap.Logger) *Worker {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Worker{
		source:    source,
		publisher: publisher,
		health:    health,
		interval:  interval,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// ReplayOnce publishes fallback events in failedAt order and deletes each one after it is accepted.
// The first failure ends the run so later events are never published ahead of earlier ones;
// the failed row and everything after it stay for the next run.
func (w *Worker) ReplayOnce(ctx context.Context) (Report, error) {
	report := Report{FirstFailureIndex: -1}

	for {
		page, err := w.source.ListOldest(ctx, w.pageSize)
		if err != nil {
			return report, fmt.Errorf("list fallback events: %w", err)
		}

		for _, fe := range page {
			idx := report.Attempted
			report.Attempted++

			if err := w.publisher.Publish(ctx, fe.Event); err != nil {
				report.FirstFailureIndex = idx
				return report, fmt.Errorf("replay event %s: %w", fe.Event.EventID, err)
			}
			if err := w.source.Delete(ctx, fe.Event.EventID); err != nil {
				report.FirstFailureIndex = idx
				return report, fmt.Errorf("delete replayed event %s: %w", fe.Event.EventID, err)
			}
			report.Succeeded++
			metrics.RecordPublished("replay")
		}

		if len(page) < w.pageSize {
			return report, nil
		}
	}
}

// Run replays on every tick until ctx is cancelled. The first run starts immediately.
// Runs are skipped while the broker is known to be unavailable.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if w.health != nil && !w.health.Available() {
		w.logger.Debug("broker unavailable, skipping replay run")
		return
	}

	report, err := w.ReplayOnce(ctx)
	if err != nil {
		metrics.ReplayFailures.Inc()
		w.logger.Warn("replay run stopped early",
			zap.Int("attempted", report.Attempted),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("first_failure_index", report.FirstFailureIndex),
			zap.Error(err),
		)
	} else if report.Succeeded > 0 {
		w.logger.Info("replayed fallback events", zap.Int("succeeded", report.Succeeded))
	}

	if backlog, err := w.source.Count(ctx); err == nil {
		metrics.FallbackBacklog.Set(float64(backlog))
	}
}
