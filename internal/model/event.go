package model

import "time"

// Known event types reported by the sensor. The list is open-ended;
// the store accepts any non-empty type string.
const (
	EventTypeMail    = "mail"
	EventTypePackage = "package"
	EventTypeOpening = "opening"
)

// Event is a discrete occurrence (mail arrival, package arrival, box
// opening) reported by the mailbox sensor. Immutable except for hard
// deletion.
type Event struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Type       string    `gorm:"size:64;not null;index" json:"type"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurredAt"`
	DeviceID   string    `gorm:"size:128;not null;index" json:"deviceID"`
	CreatedAt  time.Time `json:"-"`
}
