package model

import "time"

// Notification types recorded in sent_notifications.
const (
	NotifTypeAppointmentReminder = "appointment_reminder"
	NotifTypeNewMessage          = "new_message"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	CoupleID  int64     `json:"couple_id"`
	ProfileID int64     `json:"profile_id"`
	DeviceID  string    `json:"device_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
