package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(scanner interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	var permissions string
	var lastLogin sql.NullTime
	err := scanner.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Active, &permissions, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		a.LastLoginAt = &lastLogin.Time
	}
	if err := json.Unmarshal([]byte(permissions), &a.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return &a, nil
}

const adminCols = `id, email, name, password_hash, role, active, permissions, last_login_at, created_at, updated_at`

func (s *AdminStore) Create(email, name, passwordHash, role string, permissions []string) (*model.Admin, error) {
	perms, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}
	if permissions == nil {
		perms = []byte("[]")
	}

	result, err := s.db.Exec(
		`INSERT INTO admins (email, name, password_hash, role, permissions) VALUES (?, ?, ?, ?, ?)`,
		email, name, passwordHash, role, string(perms),
	)
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AdminStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

func (s *AdminStore) GetByID(id int64) (*model.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminCols+` FROM admins WHERE id = ?`, id)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *AdminStore) GetByEmail(email string) (*model.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminCols+` FROM admins WHERE email = ?`, email)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return a, nil
}

func (s *AdminStore) List() ([]model.Admin, error) {
	rows, err := s.db.Query(`SELECT ` + adminCols + ` FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}

func (s *AdminStore) UpdateRole(id int64, role string, permissions []string) (*model.Admin, error) {
	perms, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}
	if permissions == nil {
		perms = []byte("[]")
	}

	_, err = s.db.Exec(
		`UPDATE admins SET role = ?, permissions = ?, updated_at = datetime('now') WHERE id = ?`,
		role, string(perms), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update admin role: %w", err)
	}
	return s.GetByID(id)
}

// SetActive pauses or resumes an admin account. Paused admins fail
// authorization, not authentication.
func (s *AdminStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE admins SET active = ?, updated_at = datetime('now') WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return nil
}

func (s *AdminStore) UpdatePassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE admins SET password_hash = ?, updated_at = datetime('now') WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}

func (s *AdminStore) UpdateLastLogin(id int64) error {
	_, err := s.db.Exec(`UPDATE admins SET last_login_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}
