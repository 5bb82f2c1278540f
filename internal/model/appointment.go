package model

import "time"

type Appointment struct {
	ID              int64     `json:"id"`
	CoupleID        int64     `json:"couple_id"`
	Title           string    `json:"title"`
	Notes           string    `json:"notes"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ReminderMinutes *int      `json:"reminder_minutes"`
	CreatedBy       *int64    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
