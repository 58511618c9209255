package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tempstream/backend/services/projection-service/internal/models"
	"tempstream/backend/services/projection-service/internal/service"
)

// DeviceReader serves projection queries.
type DeviceReader interface {
	Device(ctx context.Context, deviceID int64) (*models.DeviceProjection, error)
	Devices(ctx context.Context) ([]models.DeviceProjection, error)
}

// NewDevicesHandler returns GET /devices handler.
func NewDevicesHandler(svc DeviceReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projections, err := svc.Devices(r.Context())
		if err != nil {
			logger.Error("failed to list projections", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch devices")
			return
		}
		views := make([]models.DeviceView, 0, len(projections))
		for _, p := range projections {
			views = append(views, p.View())
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"devices": views,
		})
	}
}

// NewDeviceHandler returns GET /devices/{id} handler.
func NewDeviceHandler(svc DeviceReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/devices/"), "/")
		deviceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "device id must be an integer")
			return
		}

		p, err := svc.Device(r.Context(), deviceID)
		if errors.Is(err, service.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		if err != nil {
			logger.Error("failed to fetch projection", zap.Int64("device_id", deviceID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch device")
			return
		}
		writeJSON(w, http.StatusOK, p.View())
	}
}
