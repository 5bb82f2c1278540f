package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cradlehq/cradle/internal/model"
)

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	var reminder sql.NullInt64
	var createdBy sql.NullInt64
	err := scanner.Scan(&a.ID, &a.CoupleID, &a.Title, &a.Notes, &a.Location, &a.StartTime, &a.EndTime, &reminder, &createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reminder.Valid {
		m := int(reminder.Int64)
		a.ReminderMinutes = &m
	}
	if createdBy.Valid {
		a.CreatedBy = &createdBy.Int64
	}
	return &a, nil
}

const appointmentCols = `id, couple_id, title, notes, location, start_time, end_time, reminder_minutes, created_by, created_at, updated_at`

func (s *AppointmentStore) Create(coupleID int64, title, notes, location string, start, end time.Time, reminderMinutes *int, createdBy *int64) (*model.Appointment, error) {
	var reminder sql.NullInt64
	if reminderMinutes != nil {
		reminder = sql.NullInt64{Int64: int64(*reminderMinutes), Valid: true}
	}
	var creator sql.NullInt64
	if createdBy != nil {
		creator = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO appointments (couple_id, title, notes, location, start_time, end_time, reminder_minutes, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		coupleID, title, notes, location, start.UTC(), end.UTC(), reminder, creator,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) GetByID(id int64) (*model.Appointment, error) {
	row := s.db.QueryRow(`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *AppointmentStore) ListByCouple(coupleID int64, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE couple_id = ? AND start_time >= ? AND start_time < ? ORDER BY start_time`,
		coupleID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

// ListUpcomingWithReminders returns appointments whose reminder moment
// (start_time minus lead) falls inside [from, to).
func (s *AppointmentStore) ListUpcomingWithReminders(from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE reminder_minutes IS NOT NULL
		   AND datetime(start_time, '-' || reminder_minutes || ' minutes') >= datetime(?)
		   AND datetime(start_time, '-' || reminder_minutes || ' minutes') < datetime(?)`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query reminder appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

func (s *AppointmentStore) Update(id int64, title, notes, location string, start, end time.Time, reminderMinutes *int) (*model.Appointment, error) {
	var reminder sql.NullInt64
	if reminderMinutes != nil {
		reminder = sql.NullInt64{Int64: int64(*reminderMinutes), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE appointments SET title = ?, notes = ?, location = ?, start_time = ?, end_time = ?, reminder_minutes = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		title, notes, location, start.UTC(), end.UTC(), reminder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
