package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"tempstream/backend/services/ingestion-service/internal/models"
)

// FallbackRepository holds events that failed to reach the broker.
type FallbackRepository struct {
	db *sql.DB
}

// NewFallbackRepository returns repository.
func NewFallbackRepository(db *sql.DB) *FallbackRepository {
	return &FallbackRepository{db: db}
}

// Save persists a fallback event. Saving the same event id twice is a no-op.
func (r *FallbackRepository) Save(ctx context.Context, event models.FallbackEvent) error {
	const query = `
		INSERT INTO fallback_events (event_id, device_id, measurement, date, recorded_at, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		event.Event.EventID,
		event.Event.DeviceID,
		event.Event.Measurement,
		event.Event.Date,
		event.Event.RecordedAt,
		event.FailedAt,
	)
	return err
}

// ListOldest returns up to limit fallback events, oldest failure first.
func (r *FallbackRepository) ListOldest(ctx context.Context, limit int) ([]models.FallbackEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT event_id, device_id, measurement, date, recorded_at, failed_at
		FROM fallback_events
		ORDER BY failed_at ASC, event_id ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.FallbackEvent
	for rows.Next() {
		var e models.FallbackEvent
		if err := rows.Scan(
			&e.Event.EventID,
			&e.Event.DeviceID,
			&e.Event.Measurement,
			&e.Event.Date,
			&e.Event.RecordedAt,
			&e.FailedAt,
		); err != nil {
			return nil, err
		}
		e.Event.Date = e.Event.Date.UTC()
		e.Event.RecordedAt = e.Event.RecordedAt.UTC()
		e.FailedAt = e.FailedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Exists reports whether the event is waiting in the fallback store.
func (r *FallbackRepository) Exists(ctx context.Context, eventID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM fallback_events WHERE event_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a replayed event.
func (r *FallbackRepository) Delete(ctx context.Context, eventID uuid.UUID) error {
	const query = `DELETE FROM fallback_events WHERE event_id = $1`
	_, err := r.db.ExecContext(ctx, query, eventID)
	return err
}

// Count returns the number of events waiting for replay.
func (r *FallbackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fallback_events`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
