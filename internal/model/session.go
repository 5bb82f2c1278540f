package model

import "time"

const (
	SessionActive      = "active"
	SessionInvalidated = "invalidated"
)

// DeviceSession represents one authenticated login bound to one
// physical device. At most one active session exists per
// (couple, gender) slot; a new login invalidates the previous one.
type DeviceSession struct {
	ID          int64     `json:"id"`
	Token       string    `json:"-"`
	CoupleID    int64     `json:"couple_id"`
	Gender      string    `json:"gender"`
	DeviceID    string    `json:"device_id"`
	Status      string    `json:"status"`
	LastLoginAt time.Time `json:"last_login_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
