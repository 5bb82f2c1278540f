package model

import "time"

type Message struct {
	ID        int64      `json:"id"`
	CoupleID  int64      `json:"couple_id"`
	SenderID  int64      `json:"sender_id"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}
