package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type HealthLogStore struct {
	db *sql.DB
}

func NewHealthLogStore(db *sql.DB) *HealthLogStore {
	return &HealthLogStore{db: db}
}

// UpsertSteps records the step count for a profile's day, replacing
// any previous value for the same day.
func (s *HealthLogStore) UpsertSteps(profileID int64, day string, steps int) (*model.StepLog, error) {
	_, err := s.db.Exec(
		`INSERT INTO step_logs (profile_id, day, steps) VALUES (?, ?, ?)
		 ON CONFLICT (profile_id, day) DO UPDATE SET steps = excluded.steps, updated_at = datetime('now')`,
		profileID, day, steps,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert steps: %w", err)
	}

	var l model.StepLog
	err = s.db.QueryRow(
		`SELECT id, profile_id, day, steps, created_at, updated_at FROM step_logs WHERE profile_id = ? AND day = ?`,
		profileID, day,
	).Scan(&l.ID, &l.ProfileID, &l.Day, &l.Steps, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}
	return &l, nil
}

func (s *HealthLogStore) ListSteps(profileID int64, from, to string) ([]model.StepLog, error) {
	rows, err := s.db.Query(
		`SELECT id, profile_id, day, steps, created_at, updated_at FROM step_logs
		 WHERE profile_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		profileID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var logs []model.StepLog
	for rows.Next() {
		var l model.StepLog
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Day, &l.Steps, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan steps: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *HealthLogStore) UpsertWeight(profileID int64, day string, weightKg float64) (*model.WeightLog, error) {
	_, err := s.db.Exec(
		`INSERT INTO weight_logs (profile_id, day, weight_kg) VALUES (?, ?, ?)
		 ON CONFLICT (profile_id, day) DO UPDATE SET weight_kg = excluded.weight_kg, updated_at = datetime('now')`,
		profileID, day, weightKg,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert weight: %w", err)
	}

	var l model.WeightLog
	err = s.db.QueryRow(
		`SELECT id, profile_id, day, weight_kg, created_at, updated_at FROM weight_logs WHERE profile_id = ? AND day = ?`,
		profileID, day,
	).Scan(&l.ID, &l.ProfileID, &l.Day, &l.WeightKg, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get weight: %w", err)
	}
	return &l, nil
}

func (s *HealthLogStore) ListWeights(profileID int64, from, to string) ([]model.WeightLog, error) {
	rows, err := s.db.Query(
		`SELECT id, profile_id, day, weight_kg, created_at, updated_at FROM weight_logs
		 WHERE profile_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		profileID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	var logs []model.WeightLog
	for rows.Next() {
		var l model.WeightLog
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Day, &l.WeightKg, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *HealthLogStore) AddExercise(profileID int64, day, activity string, minutes int) (*model.ExerciseLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO exercise_logs (profile_id, day, activity, minutes) VALUES (?, ?, ?, ?)`,
		profileID, day, activity, minutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var l model.ExerciseLog
	err = s.db.QueryRow(
		`SELECT id, profile_id, day, activity, minutes, created_at FROM exercise_logs WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.ProfileID, &l.Day, &l.Activity, &l.Minutes, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return &l, nil
}

func (s *HealthLogStore) ListExercises(profileID int64, day string) ([]model.ExerciseLog, error) {
	rows, err := s.db.Query(
		`SELECT id, profile_id, day, activity, minutes, created_at FROM exercise_logs
		 WHERE profile_id = ? AND day = ? ORDER BY created_at`,
		profileID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var logs []model.ExerciseLog
	for rows.Next() {
		var l model.ExerciseLog
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Day, &l.Activity, &l.Minutes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *HealthLogStore) DeleteExercise(id, profileID int64) error {
	_, err := s.db.Exec(`DELETE FROM exercise_logs WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	return nil
}

func (s *HealthLogStore) AddFood(profileID int64, day, meal, description string, calories *int) (*model.FoodLog, error) {
	var cal sql.NullInt64
	if calories != nil {
		cal = sql.NullInt64{Int64: int64(*calories), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO food_logs (profile_id, day, meal, description, calories) VALUES (?, ?, ?, ?, ?)`,
		profileID, day, meal, description, cal,
	)
	if err != nil {
		return nil, fmt.Errorf("insert food: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getFood(id)
}

func (s *HealthLogStore) getFood(id int64) (*model.FoodLog, error) {
	var l model.FoodLog
	var cal sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, profile_id, day, meal, description, calories, created_at FROM food_logs WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.ProfileID, &l.Day, &l.Meal, &l.Description, &cal, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	if cal.Valid {
		c := int(cal.Int64)
		l.Calories = &c
	}
	return &l, nil
}

func (s *HealthLogStore) ListFoods(profileID int64, day string) ([]model.FoodLog, error) {
	rows, err := s.db.Query(
		`SELECT id, profile_id, day, meal, description, calories, created_at FROM food_logs
		 WHERE profile_id = ? AND day = ? ORDER BY created_at`,
		profileID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("query foods: %w", err)
	}
	defer rows.Close()

	var logs []model.FoodLog
	for rows.Next() {
		var l model.FoodLog
		var cal sql.NullInt64
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Day, &l.Meal, &l.Description, &cal, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		if cal.Valid {
			c := int(cal.Int64)
			l.Calories = &c
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *HealthLogStore) DeleteFood(id, profileID int64) error {
	_, err := s.db.Exec(`DELETE FROM food_logs WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return fmt.Errorf("delete food: %w", err)
	}
	return nil
}

// DailySummary aggregates all logs for one profile on one day.
func (s *HealthLogStore) DailySummary(profileID int64, day string) (*model.DailySummary, error) {
	summary := &model.DailySummary{Day: day}

	err := s.db.QueryRow(
		`SELECT COALESCE(steps, 0) FROM step_logs WHERE profile_id = ? AND day = ?`,
		profileID, day,
	).Scan(&summary.Steps)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("summary steps: %w", err)
	}

	weights, err := s.ListWeights(profileID, day, day)
	if err != nil {
		return nil, err
	}
	if len(weights) > 0 {
		summary.Weight = &weights[0]
	}

	summary.Exercises, err = s.ListExercises(profileID, day)
	if err != nil {
		return nil, err
	}
	for _, e := range summary.Exercises {
		summary.ExerciseMinutes += e.Minutes
	}

	summary.Foods, err = s.ListFoods(profileID, day)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
