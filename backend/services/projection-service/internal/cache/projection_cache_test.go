package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tempstream/backend/services/projection-service/internal/models"
)

func TestEncodeRoundTripKeepsPrecision(t *testing.T) {
	date := time.Date(2026, 10, 17, 10, 0, 0, 123000, time.UTC)
	p := models.DeviceProjection{
		DeviceID:          4,
		LatestMeasurement: decimal.NewNullDecimal(decimal.RequireFromString("21.000000000000000001")),
		LatestDate:        &date,
	}

	data, ok, err := encode(p)
	if err != nil || !ok {
		t.Fatalf("encode: ok=%v err=%v", ok, err)
	}
	got, err := decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DeviceID != 4 || !got.LatestDate.Equal(date) {
		t.Fatalf("unexpected projection %+v", got)
	}
	if got.LatestMeasurement.Decimal.String() != "21.000000000000000001" {
		t.Fatalf("measurement precision lost: %s", got.LatestMeasurement.Decimal)
	}
}

func TestEncodeSkipsEmptyProjection(t *testing.T) {
	_, ok, err := encode(models.DeviceProjection{DeviceID: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if ok {
		t.Fatal("projection without a date must not be cached")
	}
}

func TestKeyFormat(t *testing.T) {
	if got := key(42); got != "devices:latest:42" {
		t.Fatalf("unexpected key %q", got)
	}
}
