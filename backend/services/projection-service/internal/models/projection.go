package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceProjection is the latest known measurement of one device.
// LatestDate is nil until the first event for the device is applied.
type DeviceProjection struct {
	DeviceID          int64
	LatestMeasurement decimal.NullDecimal
	LatestDate        *time.Time
	UpdatedAt         time.Time
}

// DeviceView is the JSON shape served to readers.
type DeviceView struct {
	DeviceID    int64            `json:"device_id"`
	Measurement *decimal.Decimal `json:"measurement"`
	Date        *time.Time       `json:"date"`
}

// View converts the projection for output.
func (p DeviceProjection) View() DeviceView {
	v := DeviceView{DeviceID: p.DeviceID, Date: p.LatestDate}
	if p.LatestMeasurement.Valid {
		m := p.LatestMeasurement.Decimal
		v.Measurement = &m
	}
	return v
}
