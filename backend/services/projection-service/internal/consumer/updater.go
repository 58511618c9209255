package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/projection-service/internal/metrics"
	"tempstream/backend/services/projection-service/internal/models"
	"tempstream/backend/services/projection-service/internal/repository"
)

// Outcome classifies a handled event.
type Outcome int

const (
	// OutcomeInitialized created the projection of a device seen for the first time.
	OutcomeInitialized Outcome = iota + 1
	// OutcomeApplied moved an existing projection forward.
	OutcomeApplied
	// OutcomeStale left the projection untouched because it already reflects a later date.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInitialized:
		return "initialized"
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Offset advances consumption progress past the event it was delivered with.
type Offset interface {
	Commit(ctx context.Context) error
}

// Store is the durable projection store.
type Store interface {
	Get(ctx context.Context, deviceID int64) (*models.DeviceProjection, error)
	Save(ctx context.Context, p models.DeviceProjection) (bool, error)
}

// Cache mirrors applied projections.
type Cache interface {
	Set(ctx context.Context, p models.DeviceProjection) error
}

// Updater applies telemetry events to device projections.
type Updater struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

// NewUpdater returns updater. cache may be nil.
func NewUpdater(store Store, cache Cache, logger *zap.Logger) *Updater {
	return &Updater{store: store, cache: cache, logger: logger}
}

// OnEvent applies event and then commits offset. The offset is committed only after the
// projection write, or the decision that the event is stale, is durable. A store failure
// returns an error with the offset untouched so the broker delivers the event again.
func (u *Updater) OnEvent(ctx context.Context, event telemetry.Recorded, offset Offset) (Outcome, error) {
	existing, err := u.store.Get(ctx, event.DeviceID)
	if err != nil && !errors.Is(err, repository.ErrProjectionNotFound) {
		metrics.PersistFailures.Inc()
		return 0, fmt.Errorf("load projection for device %d: %w", event.DeviceID, err)
	}

	if existing != nil && existing.LatestDate != nil && existing.LatestDate.After(event.Date) {
		return u.stale(ctx, event, offset, zap.Time("projection_date", *existing.LatestDate))
	}

	date := event.Date.UTC()
	next := models.DeviceProjection{
		DeviceID:          event.DeviceID,
		LatestMeasurement: decimal.NewNullDecimal(event.Measurement),
		LatestDate:        &date,
	}
	applied, err := u.store.Save(ctx, next)
	if err != nil {
		metrics.PersistFailures.Inc()
		return 0, fmt.Errorf("save projection for device %d: %w", event.DeviceID, err)
	}
	if !applied {
		// A newer event was written between the read and the write.
		return u.stale(ctx, event, offset, zap.Bool("lost_race", true))
	}

	outcome := OutcomeApplied
	if existing == nil || existing.LatestDate == nil {
		outcome = OutcomeInitialized
	}
	u.mirror(ctx, next)

	if err := offset.Commit(ctx); err != nil {
		return outcome, fmt.Errorf("commit offset for event %s: %w", event.EventID, err)
	}
	metrics.RecordEvent(outcome.String())
	u.logger.Debug("projection updated",
		zap.Int64("device_id", event.DeviceID),
		zap.String("event_id", event.EventID.String()),
		zap.Stringer("outcome", outcome),
	)
	return outcome, nil
}

func (u *Updater) stale(ctx context.Context, event telemetry.Recorded, offset Offset, detail zap.Field) (Outcome, error) {
	metrics.OutOfOrder.Inc()
	u.logger.Info("discarding out-of-order event",
		zap.Int64("device_id", event.DeviceID),
		zap.String("event_id", event.EventID.String()),
		zap.Time("event_date", event.Date),
		detail,
	)
	if err := offset.Commit(ctx); err != nil {
		return OutcomeStale, fmt.Errorf("commit offset for stale event %s: %w", event.EventID, err)
	}
	metrics.RecordEvent(OutcomeStale.String())
	return OutcomeStale, nil
}

func (u *Updater) mirror(ctx context.Context, p models.DeviceProjection) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, p); err != nil {
		metrics.RecordCacheError("set")
		u.logger.Warn("failed to cache projection", zap.Int64("device_id", p.DeviceID), zap.Error(err))
	}
}
