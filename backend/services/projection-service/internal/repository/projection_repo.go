package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tempstream/backend/services/projection-service/internal/models"
)

// ErrProjectionNotFound indicates a device without any applied event.
var ErrProjectionNotFound = errors.New("projection not found")

// ProjectionRepository persists device projections.
type ProjectionRepository struct {
	db *sql.DB
}

// NewProjectionRepository returns repository.
func NewProjectionRepository(db *sql.DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

// Get returns the projection for deviceID or ErrProjectionNotFound.
func (r *ProjectionRepository) Get(ctx context.Context, deviceID int64) (*models.DeviceProjection, error) {
	const query = `
		SELECT device_id, latest_measurement, latest_date, updated_at
		FROM device_projections
		WHERE device_id = $1
	`
	var p models.DeviceProjection
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&p.DeviceID,
		&p.LatestMeasurement,
		&p.LatestDate,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectionNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&p)
	return &p, nil
}

// Save creates or advances the projection. The row only moves forward in time:
// when a stored latest_date is already after p.LatestDate nothing is written and applied is false.
func (r *ProjectionRepository) Save(ctx context.Context, p models.DeviceProjection) (applied bool, err error) {
	const query = `
		INSERT INTO device_projections (device_id, latest_measurement, latest_date, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (device_id) DO UPDATE SET
			latest_measurement = EXCLUDED.latest_measurement,
			latest_date = EXCLUDED.latest_date,
			updated_at = NOW()
		WHERE device_projections.latest_date IS NULL
		   OR device_projections.latest_date <= EXCLUDED.latest_date
		RETURNING device_id
	`
	var deviceID int64
	err = r.db.QueryRowContext(ctx, query, p.DeviceID, p.LatestMeasurement, p.LatestDate).Scan(&deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns every projection ordered by device id.
func (r *ProjectionRepository) List(ctx context.Context) ([]models.DeviceProjection, error) {
	const query = `
		SELECT device_id, latest_measurement, latest_date, updated_at
		FROM device_projections
		ORDER BY device_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projections []models.DeviceProjection
	for rows.Next() {
		var p models.DeviceProjection
		if err := rows.Scan(
			&p.DeviceID,
			&p.LatestMeasurement,
			&p.LatestDate,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		normalize(&p)
		projections = append(projections, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projections, nil
}

func normalize(p *models.DeviceProjection) {
	if p.LatestDate != nil {
		d := p.LatestDate.UTC()
		p.LatestDate = &d
	}
	p.UpdatedAt = p.UpdatedAt.In(time.UTC)
}
