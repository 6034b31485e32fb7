package model

import "time"

// Heartbeat is a single health sample reported by the mailbox sensor.
// Samples are immutable once stored; the "current" sample for a device
// is the one with the greatest ObservedAt.
type Heartbeat struct {
	ID             int64     `gorm:"primaryKey" json:"-"`
	DeviceID       string    `gorm:"size:128;not null;index" json:"deviceID"`
	ObservedAt     time.Time `gorm:"not null;index" json:"observedAt"`
	UptimeSeconds  *int64    `json:"uptimeSeconds,omitempty"`
	EventCount     *int      `json:"eventCount,omitempty"`
	RSSI           *int      `json:"rssi,omitempty"`
	WeightGrams    *float64  `json:"weightGrams,omitempty"`
	BeamBlocked    *bool     `json:"beamBlocked,omitempty"`
	BatteryPercent *int      `json:"batteryPercent,omitempty"`
	CreatedAt      time.Time `json:"-"`
}
