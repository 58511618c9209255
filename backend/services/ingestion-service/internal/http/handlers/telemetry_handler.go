package handlers

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/ingestion-service/internal/http/middleware"
)

const maxBodyBytes = 64 << 10

// Submitter accepts telemetry readings.
type Submitter interface {
	Submit(ctx context.Context, reading telemetry.Reading) (uuid.UUID, error)
}

// TelemetryHandler handles telemetry submissions.
type TelemetryHandler struct {
	service  Submitter
	validate *validator.Validate
	logger   *zap.Logger
}

type submitRequest struct {
	DeviceID    *int64           `json:"device_id" validate:"required"`
	Measurement *decimal.Decimal `json:"measurement" validate:"required"`
	Date        *time.Time       `json:"date" validate:"required"`
}

// NewTelemetryHandler returns handler.
func NewTelemetryHandler(service Submitter, logger *zap.Logger) *TelemetryHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return &TelemetryHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// ServeHTTP handles POST /telemetry.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, describeValidation(err))
		return
	}
	if deviceID, ok := middleware.DeviceIDFromContext(r.Context()); ok && deviceID != *req.DeviceID {
		writeError(w, http.StatusForbidden, "token does not match device_id")
		return
	}

	eventID, err := h.service.Submit(r.Context(), telemetry.Reading{
		DeviceID:    req.DeviceID,
		Measurement: req.Measurement,
		Date:        req.Date,
	})
	if err != nil {
		switch telemetry.KindOf(err) {
		case telemetry.KindValidation:
			writeError(w, http.StatusBadRequest, err.Error())
		case telemetry.KindDuplicate:
			writeError(w, http.StatusConflict, "telemetry already recorded for device and date")
		case telemetry.KindStoreUnavailable:
			h.logger.Warn("telemetry store unavailable", zap.Error(err))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		default:
			h.logger.Error("failed to submit telemetry", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to submit telemetry")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": eventID.String()})
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "missing required fields: " + strings.Join(fields, ", ")
}
