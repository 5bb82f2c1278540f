package model

import "time"

// Daily health logs are keyed by profile and calendar day
// (YYYY-MM-DD, client-local date).

type StepLog struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Day       string    `json:"day"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WeightLog struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Day       string    `json:"day"`
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExerciseLog struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Day       string    `json:"day"`
	Activity  string    `json:"activity"`
	Minutes   int       `json:"minutes"`
	CreatedAt time.Time `json:"created_at"`
}

type FoodLog struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	Day         string    `json:"day"`
	Meal        string    `json:"meal"`
	Description string    `json:"description"`
	Calories    *int      `json:"calories"`
	CreatedAt   time.Time `json:"created_at"`
}

// Meal slots accepted for food logs.
var Meals = []string{"breakfast", "lunch", "dinner", "snack"}

func ValidMeal(m string) bool {
	for _, meal := range Meals {
		if m == meal {
			return true
		}
	}
	return false
}

// DailySummary aggregates one profile's logs for a single day.
type DailySummary struct {
	Day             string        `json:"day"`
	Steps           int           `json:"steps"`
	Weight          *WeightLog    `json:"weight"`
	ExerciseMinutes int           `json:"exercise_minutes"`
	Exercises       []ExerciseLog `json:"exercises"`
	Foods           []FoodLog     `json:"foods"`
}
