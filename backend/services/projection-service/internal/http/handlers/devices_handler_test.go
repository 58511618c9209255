package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tempstream/backend/services/projection-service/internal/models"
	"tempstream/backend/services/projection-service/internal/service"
)

type stubReader struct {
	rows map[int64]models.DeviceProjection
	err  error
}

func (s *stubReader) Device(ctx context.Context, deviceID int64) (*models.DeviceProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.rows[deviceID]
	if !ok {
		return nil, service.ErrDeviceNotFound
	}
	return &p, nil
}

func (s *stubReader) Devices(ctx context.Context) ([]models.DeviceProjection, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.DeviceProjection, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	return out, nil
}

func newStub() *stubReader {
	date := time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)
	return &stubReader{rows: map[int64]models.DeviceProjection{
		1: {
			DeviceID:          1,
			LatestMeasurement: decimal.NewNullDecimal(decimal.RequireFromString("21.0")),
			LatestDate:        &date,
		},
	}}
}

func TestDeviceHandler(t *testing.T) {
	cases := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"found", "/devices/1", nil, http.StatusOK},
		{"unknown", "/devices/2", nil, http.StatusNotFound},
		{"bad id", "/devices/abc", nil, http.StatusBadRequest},
		{"store error", "/devices/1", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := newStub()
			stub.err = tc.err
			rec := httptest.NewRecorder()
			NewDeviceHandler(stub, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestDeviceHandlerBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewDeviceHandler(newStub(), zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices/1", nil))

	var view struct {
		DeviceID    int64  `json:"device_id"`
		Measurement string `json:"measurement"`
		Date        string `json:"date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.DeviceID != 1 || view.Measurement != "21" || !strings.HasPrefix(view.Date, "2026-10-17T11:00:00") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestDevicesHandlerReturnsEveryDevice(t *testing.T) {
	const devices = 1200
	date := time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)
	stub := &stubReader{rows: make(map[int64]models.DeviceProjection, devices)}
	for id := int64(1); id <= devices; id++ {
		stub.rows[id] = models.DeviceProjection{
			DeviceID:          id,
			LatestMeasurement: decimal.NewNullDecimal(decimal.NewFromInt(id)),
			LatestDate:        &date,
		}
	}

	rec := httptest.NewRecorder()
	NewDevicesHandler(stub, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Devices []map[string]interface{} `json:"devices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Devices) != devices {
		t.Fatalf("devices = %d, want %d", len(resp.Devices), devices)
	}
}

func TestDevicesHandlerStoreError(t *testing.T) {
	stub := newStub()
	stub.err = errors.New("db down")
	rec := httptest.NewRecorder()
	NewDevicesHandler(stub, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
