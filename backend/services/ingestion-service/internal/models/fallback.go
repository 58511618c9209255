package models

import (
	"time"

	"tempstream/backend/libs/telemetry"
)

// FallbackEvent is a telemetry event that could not be published, waiting for replay.
type FallbackEvent struct {
	Event    telemetry.Recorded `json:"event"`
	FailedAt time.Time          `json:"failed_at"`
}
