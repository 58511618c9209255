package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tempstream/backend/services/projection-service/internal/cache"
	"tempstream/backend/services/projection-service/internal/metrics"
	"tempstream/backend/services/projection-service/internal/models"
	"tempstream/backend/services/projection-service/internal/repository"
)

// ErrDeviceNotFound indicates a device with no projection.
var ErrDeviceNotFound = errors.New("device not found")

// Repository reads projections.
type Repository interface {
	Get(ctx context.Context, deviceID int64) (*models.DeviceProjection, error)
	List(ctx context.Context) ([]models.DeviceProjection, error)
}

// Cache is the read-through cache in front of the repository.
// Fill must not replace a value that is already cached.
type Cache interface {
	Get(ctx context.Context, deviceID int64) (*models.DeviceProjection, error)
	Fill(ctx context.Context, p models.DeviceProjection) error
}

// ProjectionService answers read queries.
type ProjectionService struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
}

// NewProjectionService builds service. cache may be nil.
func NewProjectionService(repo Repository, cache Cache, logger *zap.Logger) *ProjectionService {
	return &ProjectionService{repo: repo, cache: cache, logger: logger}
}

// Device returns the latest projection of one device.
func (s *ProjectionService) Device(ctx context.Context, deviceID int64) (*models.DeviceProjection, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, deviceID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			metrics.RecordCacheError("get")
			s.logger.Warn("failed to read cached projection", zap.Int64("device_id", deviceID), zap.Error(err))
		}
	}

	p, err := s.repo.Get(ctx, deviceID)
	if errors.Is(err, repository.ErrProjectionNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Fill(ctx, *p); err != nil {
			metrics.RecordCacheError("set")
			s.logger.Warn("failed to cache projection", zap.Int64("device_id", deviceID), zap.Error(err))
		}
	}
	return p, nil
}

// Devices returns a snapshot of every projection ordered by device id.
func (s *ProjectionService) Devices(ctx context.Context) ([]models.DeviceProjection, error) {
	return s.repo.List(ctx)
}
