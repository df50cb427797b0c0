package models

import "time"

// Notification represents a persisted announcement targeted at one user.
// Delivery beyond persistence (pub/sub fan-out) is best effort and never
// blocks the workflow that produced it.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:64" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	LinkHint  string    `gorm:"size:512" json:"link_hint"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
