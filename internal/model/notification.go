package model

import "time"

// Notification is the user-facing record of a domain event. IsNew is
// the only mutable field; it only ever transitions from true to false.
type Notification struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Type        string    `gorm:"size:64;not null" json:"type"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"size:1024;not null" json:"description"`
	DeviceID    string    `gorm:"size:128;not null" json:"deviceID"`
	IsNew       bool      `gorm:"not null" json:"isNew"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
}
