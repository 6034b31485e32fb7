package model

import "time"

// Subscriber is an email address receiving notification mails. Rows
// are never hard-deleted; unsubscribing flips Active so a later
// re-subscribe reactivates the same row.
type Subscriber struct {
	Email     string    `gorm:"primaryKey;size:256" json:"email"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
