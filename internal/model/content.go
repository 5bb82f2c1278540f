package model

import "time"

// ContentPage is a static informational page (FAQ, privacy policy)
// served to clients verbatim. Seeded by migration, edited by admins.
type ContentPage struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
