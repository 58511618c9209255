package repository

import (
	"context"
	"database/sql"
	"errors"

	"tempstream/backend/libs/db"
	"tempstream/backend/libs/telemetry"
)

// ErrDuplicateRecord is returned when a record with the same (device, date) already exists.
var ErrDuplicateRecord = errors.New("telemetry record already exists")

// TelemetryRepository is the idempotent write store for accepted measurements.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository returns repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Exists reports whether a measurement with the same natural key was already stored.
func (r *TelemetryRepository) Exists(ctx context.Context, key telemetry.Key) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM telemetry_records WHERE device_id = $1 AND date = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key.DeviceID, key.Date).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert stores the measurement. A concurrent insert of the same key yields ErrDuplicateRecord.
func (r *TelemetryRepository) Insert(ctx context.Context, t telemetry.Telemetry) error {
	const query = `
		INSERT INTO telemetry_records (device_id, measurement, date, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.ExecContext(ctx, query, t.DeviceID, t.Measurement, t.Date)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateRecord
	}
	return err
}

// Delete removes a stored measurement. Used to undo an insert whose event could not be kept.
func (r *TelemetryRepository) Delete(ctx context.Context, key telemetry.Key) error {
	const query = `
		DELETE FROM telemetry_records
		WHERE device_id = $1 AND date = $2
	`
	_, err := r.db.ExecContext(ctx, query, key.DeviceID, key.Date)
	return err
}
