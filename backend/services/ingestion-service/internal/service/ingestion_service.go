package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/ingestion-service/internal/metrics"
	"tempstream/backend/services/ingestion-service/internal/models"
	"tempstream/backend/services/ingestion-service/internal/repository"
)

// WriteStore is the idempotent record of accepted measurements.
type WriteStore interface {
	Exists(ctx context.Context, key telemetry.Key) (bool, error)
	Insert(ctx context.Context, t telemetry.Telemetry) error
	Delete(ctx context.Context, key telemetry.Key) error
}

// FallbackStore keeps events the broker did not accept.
type FallbackStore interface {
	Save(ctx context.Context, event models.FallbackEvent) error
	Exists(ctx context.Context, eventID uuid.UUID) (bool, error)
}

// Publisher sends events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event telemetry.Recorded) error
}

// IngestionService validates, deduplicates, persists and propagates telemetry.
type IngestionService struct {
	writes       WriteStore
	fallback     FallbackStore
	publisher    Publisher
	storeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewIngestionService returns service instance.
func NewIngestionService(writes WriteStore, fallback FallbackStore, publisher Publisher, storeTimeout time.Duration, logger *zap.Logger) *IngestionService {
	return &IngestionService{
		writes:       writes,
		fallback:     fallback,
		publisher:    publisher,
		storeTimeout: storeTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Submit accepts one reading and returns the id of the event it produced.
//
// Failures before the write record commits are returned as *telemetry.Error with kind
// Validation, Duplicate or StoreUnavailable. Once the record is committed, a broker failure
// diverts the event to the fallback store and Submit still succeeds.
func (s *IngestionService) Submit(ctx context.Context, reading telemetry.Reading) (uuid.UUID, error) {
	const op = "submit"

	t, err := reading.Validate(s.now())
	if err != nil {
		metrics.RecordSubmission(telemetry.KindValidation.String())
		return uuid.Nil, err
	}
	log := s.logger.With(zap.Int64("device_id", t.DeviceID), zap.Time("date", t.Date))

	exists, err := s.exists(ctx, t.Key())
	if err != nil {
		metrics.RecordSubmission(telemetry.KindStoreUnavailable.String())
		return uuid.Nil, telemetry.NewError(telemetry.KindStoreUnavailable, op, err)
	}
	if exists {
		metrics.RecordSubmission(telemetry.KindDuplicate.String())
		return uuid.Nil, telemetry.NewError(telemetry.KindDuplicate, op, repository.ErrDuplicateRecord)
	}

	if err := s.insert(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			metrics.RecordSubmission(telemetry.KindDuplicate.String())
			return uuid.Nil, telemetry.NewError(telemetry.KindDuplicate, op, err)
		}
		metrics.RecordSubmission(telemetry.KindStoreUnavailable.String())
		return uuid.Nil, telemetry.NewError(telemetry.KindStoreUnavailable, op, err)
	}

	// The record is durable; a caller going away must not stop propagation.
	ctx = context.WithoutCancel(ctx)

	event := telemetry.NewRecorded(t, s.now())
	log = log.With(zap.String("event_id", event.EventID.String()))

	pubErr := s.publisher.Publish(ctx, event)
	if pubErr == nil {
		metrics.RecordPublished("direct")
		metrics.RecordSubmission("accepted")
		return event.EventID, nil
	}
	log.Warn("publish failed, diverting event to fallback store", zap.Error(pubErr))

	if err := s.saveFallback(ctx, models.FallbackEvent{Event: event, FailedAt: s.now()}); err != nil {
		// A timed out save may still have committed; then the event is kept and so is the record.
		if stored, checkErr := s.fallbackStored(ctx, event.EventID); checkErr == nil && stored {
			log.Warn("fallback save reported an error but the event was stored", zap.Error(err))
			metrics.FallbackStored.Inc()
			metrics.RecordSubmission("accepted")
			return event.EventID, nil
		}
		log.Error("fallback store unavailable, undoing write record", zap.Error(err))
		if delErr := s.remove(ctx, t.Key()); delErr != nil {
			log.Error("failed to undo write record, event will not propagate", zap.Error(delErr))
		}
		metrics.RecordSubmission(telemetry.KindStoreUnavailable.String())
		return uuid.Nil, telemetry.NewError(telemetry.KindStoreUnavailable, op, err)
	}

	metrics.FallbackStored.Inc()
	metrics.RecordSubmission("accepted")
	return event.EventID, nil
}

func (s *IngestionService) exists(ctx context.Context, key telemetry.Key) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.writes.Exists(ctx, key)
}

func (s *IngestionService) insert(ctx context.Context, t telemetry.Telemetry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.writes.Insert(ctx, t)
}

func (s *IngestionService) remove(ctx context.Context, key telemetry.Key) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.writes.Delete(ctx, key)
}

func (s *IngestionService) saveFallback(ctx context.Context, event models.FallbackEvent) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.fallback.Save(ctx, event)
}

func (s *IngestionService) fallbackStored(ctx context.Context, eventID uuid.UUID) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.fallback.Exists(ctx, eventID)
}

func (s *IngestionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
