package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cradlehq/cradle/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.DeviceSession, error) {
	var s model.DeviceSession
	err := scanner.Scan(&s.ID, &s.Token, &s.CoupleID, &s.Gender, &s.DeviceID, &s.Status, &s.LastLoginAt, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionCols = `id, token, couple_id, gender, device_id, status, last_login_at, expires_at, created_at`

// Create opens a session for a device with a crypto-random token and
// 90-day expiry. All prior active sessions for the same (couple, gender)
// slot are invalidated in the same transaction, so at most one active
// session exists per slot. Returns the new session and the device IDs
// that were displaced.
func (s *SessionStore) Create(coupleID int64, gender, deviceID string) (*model.DeviceSession, []string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	expiresAt := time.Now().UTC().Add(90 * 24 * time.Hour)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT device_id FROM device_sessions WHERE couple_id = ? AND gender = ? AND status = 'active' AND device_id != ?`,
		coupleID, gender, deviceID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query displaced devices: %w", err)
	}
	var displaced []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan device id: %w", err)
		}
		displaced = append(displaced, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("displaced devices: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE device_sessions SET status = 'invalidated' WHERE couple_id = ? AND gender = ? AND status = 'active'`,
		coupleID, gender,
	); err != nil {
		return nil, nil, fmt.Errorf("invalidate prior sessions: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO device_sessions (token, couple_id, gender, device_id, expires_at) VALUES (?, ?, ?, ?, ?)`,
		token, coupleID, gender, deviceID, expiresAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM device_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, nil, fmt.Errorf("get created session: %w", err)
	}
	return sess, displaced, nil
}

// GetByToken returns the active session for the given token, or nil if
// invalidated, expired, or not found.
func (s *SessionStore) GetByToken(token string) (*model.DeviceSession, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM device_sessions WHERE token = ? AND status = 'active' AND expires_at > datetime('now')`,
		token,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// GetByDevice returns the session bound to (couple, gender, device)
// regardless of status, or nil if none exists.
func (s *SessionStore) GetByDevice(coupleID int64, gender, deviceID string) (*model.DeviceSession, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM device_sessions WHERE couple_id = ? AND gender = ? AND device_id = ? ORDER BY created_at DESC LIMIT 1`,
		coupleID, gender, deviceID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by device: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) GetByID(id int64) (*model.DeviceSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM device_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) ListByCouple(coupleID int64) ([]model.DeviceSession, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM device_sessions WHERE couple_id = ? ORDER BY created_at DESC`,
		coupleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.DeviceSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// Invalidate marks a single session invalidated (admin remote logout).
func (s *SessionStore) Invalidate(id int64) (*model.DeviceSession, error) {
	_, err := s.db.Exec(`UPDATE device_sessions SET status = 'invalidated' WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("invalidate session: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM device_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invalidated session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM device_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM device_sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
