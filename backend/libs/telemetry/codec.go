package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContentType is set as a message header on published events.
const ContentType = "application/vnd.tempstream.telemetry-recorded.v1+json"

type wireRecorded struct {
	EventID     *uuid.UUID       `json:"eventId"`
	DeviceID    *int64           `json:"deviceId"`
	Measurement *decimal.Decimal `json:"measurement"`
	Date        *time.Time       `json:"date"`
	RecordedAt  *time.Time       `json:"recordedAt"`
}

// ErrMalformedEvent is returned for payloads that can never be applied.
var ErrMalformedEvent = errors.New("malformed telemetry event")

// Marshal encodes the event for transport.
func Marshal(e Recorded) ([]byte, error) {
	return json.Marshal(wireRecorded{
		EventID:     &e.EventID,
		DeviceID:    &e.DeviceID,
		Measurement: &e.Measurement,
		Date:        &e.Date,
		RecordedAt:  &e.RecordedAt,
	})
}

// Unmarshal decodes a transported event. Missing fields yield ErrMalformedEvent.
func Unmarshal(data []byte) (Recorded, error) {
	var w wireRecorded
	if err := json.Unmarshal(data, &w); err != nil {
		return Recorded{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch {
	case w.EventID == nil || *w.EventID == uuid.Nil:
		return Recorded{}, fmt.Errorf("%w: eventId missing", ErrMalformedEvent)
	case w.DeviceID == nil:
		return Recorded{}, fmt.Errorf("%w: deviceId missing", ErrMalformedEvent)
	case w.Measurement == nil:
		return Recorded{}, fmt.Errorf("%w: measurement missing", ErrMalformedEvent)
	case w.Date == nil || w.Date.IsZero():
		return Recorded{}, fmt.Errorf("%w: date missing", ErrMalformedEvent)
	}

	e := Recorded{
		EventID:     *w.EventID,
		DeviceID:    *w.DeviceID,
		Measurement: *w.Measurement,
		Date:        w.Date.UTC(),
	}
	if w.RecordedAt != nil {
		e.RecordedAt = w.RecordedAt.UTC()
	}
	return e, nil
}
