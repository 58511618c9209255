package telemetry

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recorded is the domain event emitted once per accepted Telemetry.
// It carries everything the read side needs; nothing re-reads the write store.
type Recorded struct {
	EventID     uuid.UUID
	DeviceID    int64
	Measurement decimal.Decimal
	Date        time.Time
	RecordedAt  time.Time
}

// NewRecorded builds the event for t with a fresh id.
func NewRecorded(t Telemetry, recordedAt time.Time) Recorded {
	return Recorded{
		EventID:     uuid.New(),
		DeviceID:    t.DeviceID,
		Measurement: t.Measurement,
		Date:        t.Date,
		RecordedAt:  recordedAt.UTC(),
	}
}

// PartitionKey keeps every event of one device on the same partition.
func (e Recorded) PartitionKey() []byte {
	return []byte(strconv.FormatInt(e.DeviceID, 10))
}
