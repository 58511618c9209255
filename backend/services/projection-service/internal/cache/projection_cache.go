package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tempstream/backend/services/projection-service/internal/models"
)

// ErrMiss is returned when a device is not cached.
var ErrMiss = errors.New("cache miss")

type entry struct {
	DeviceID    int64           `json:"device_id"`
	Measurement decimal.Decimal `json:"measurement"`
	Date        time.Time       `json:"date"`
}

// Store mirrors applied projections in redis for fast reads.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(deviceID int64) string {
	return fmt.Sprintf("devices:latest:%d", deviceID)
}

// Set caches p. Projections without an applied event are not cached.
func (s *Store) Set(ctx context.Context, p models.DeviceProjection) error {
	data, ok, err := encode(p)
	if err != nil || !ok {
		return err
	}
	return s.client.Set(ctx, key(p.DeviceID), data, s.ttl).Err()
}

// Get returns the cached projection or ErrMiss.
func (s *Store) Get(ctx context.Context, deviceID int64) (*models.DeviceProjection, error) {
	result, err := s.client.Get(ctx, key(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return decode(result)
}

// Fill caches p only if the device has no cached value. A value present by then was
// mirrored after a durable write that is at least as new as p, so it is kept.
func (s *Store) Fill(ctx context.Context, p models.DeviceProjection) error {
	data, ok, err := encode(p)
	if err != nil || !ok {
		return err
	}
	return s.client.SetNX(ctx, key(p.DeviceID), data, s.ttl).Err()
}

func encode(p models.DeviceProjection) ([]byte, bool, error) {
	if p.LatestDate == nil || !p.LatestMeasurement.Valid {
		return nil, false, nil
	}
	data, err := json.Marshal(entry{
		DeviceID:    p.DeviceID,
		Measurement: p.LatestMeasurement.Decimal,
		Date:        p.LatestDate.UTC(),
	})
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func decode(data []byte) (*models.DeviceProjection, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	date := e.Date.UTC()
	return &models.DeviceProjection{
		DeviceID:          e.DeviceID,
		LatestMeasurement: decimal.NewNullDecimal(e.Measurement),
		LatestDate:        &date,
	}, nil
}
