package model

import "time"

// Gender slots on a couple record. Every couple has exactly one
// profile per slot.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

var Genders = []string{GenderMale, GenderFemale}

func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

type Couple struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	DueDate   *time.Time `json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Profile is one of the two people sharing a couple record.
type Profile struct {
	ID          int64      `json:"id"`
	CoupleID    int64      `json:"couple_id"`
	Gender      string     `json:"gender"`
	Name        string     `json:"name"`
	HasPIN      bool       `json:"has_pin"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
