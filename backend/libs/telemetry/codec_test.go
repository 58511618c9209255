package telemetry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMarshalUnmarshalPreservesEvent(t *testing.T) {
	date := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	event := NewRecorded(Telemetry{
		DeviceID:    42,
		Measurement: decimal.RequireFromString("21.000000000000000000001"),
		Date:        date,
	}, date.Add(time.Minute))

	data, err := Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"eventId"`, `"deviceId":42`, `"measurement"`, `"date"`, `"recordedAt"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("expected %s in %s", field, data)
		}
	}

	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EventID != event.EventID || decoded.DeviceID != 42 {
		t.Fatalf("identity lost: %+v", decoded)
	}
	if !decoded.Measurement.Equal(event.Measurement) {
		t.Fatalf("measurement changed: %s", decoded.Measurement)
	}
	if !decoded.Date.Equal(date) || !decoded.RecordedAt.Equal(event.RecordedAt) {
		t.Fatalf("timestamps changed: %+v", decoded)
	}
}

func TestUnmarshalRejectsIncompletePayloads(t *testing.T) {
	cases := map[string]string{
		"garbage":        `{not json`,
		"no event id":    `{"deviceId":1,"measurement":"1","date":"2026-01-01T00:00:00Z"}`,
		"no device":      `{"eventId":"4d6c8c1e-5f7e-4e0d-9a53-2b0f0f6f8a11","measurement":"1","date":"2026-01-01T00:00:00Z"}`,
		"no measurement": `{"eventId":"4d6c8c1e-5f7e-4e0d-9a53-2b0f0f6f8a11","deviceId":1,"date":"2026-01-01T00:00:00Z"}`,
		"no date":        `{"eventId":"4d6c8c1e-5f7e-4e0d-9a53-2b0f0f6f8a11","deviceId":1,"measurement":"1"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(payload)); !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestPartitionKeyIsDeviceID(t *testing.T) {
	e := Recorded{DeviceID: 1234}
	if string(e.PartitionKey()) != "1234" {
		t.Fatalf("unexpected key %q", e.PartitionKey())
	}
}
