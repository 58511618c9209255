package telemetry

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reading is a raw submission. Nil fields are absent.
type Reading struct {
	DeviceID    *int64
	Measurement *decimal.Decimal
	Date        *time.Time
}

// Key is the natural idempotency key of a measurement.
type Key struct {
	DeviceID int64
	Date     time.Time
}

// Telemetry is a validated measurement. It is never mutated after Validate.
type Telemetry struct {
	DeviceID    int64
	Measurement decimal.Decimal
	Date        time.Time
}

// Validate checks that every field is present and the date is not after now.
// Dates are normalised to UTC with microsecond precision, matching storage.
func (r Reading) Validate(now time.Time) (Telemetry, error) {
	var problems []string
	if r.DeviceID == nil {
		problems = append(problems, "device_id is required")
	}
	if r.Measurement == nil {
		problems = append(problems, "measurement is required")
	}
	if r.Date == nil || r.Date.IsZero() {
		problems = append(problems, "date is required")
	} else if r.Date.After(now) {
		problems = append(problems, "date must not be in the future")
	}
	if len(problems) > 0 {
		return Telemetry{}, NewError(KindValidation, "validate", errors.New(strings.Join(problems, "; ")))
	}

	return Telemetry{
		DeviceID:    *r.DeviceID,
		Measurement: *r.Measurement,
		Date:        r.Date.UTC().Truncate(time.Microsecond),
	}, nil
}

// Key returns the (device, date) pair used for deduplication.
func (t Telemetry) Key() Key {
	return Key{DeviceID: t.DeviceID, Date: t.Date.UTC()}
}

// Equal reports whether both readings share the same natural key.
func (t Telemetry) Equal(other Telemetry) bool {
	return t.DeviceID == other.DeviceID && t.Date.Equal(other.Date)
}
