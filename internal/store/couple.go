package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
	"github.com/google/uuid"
)

type CoupleStore struct {
	db *sql.DB
}

func NewCoupleStore(db *sql.DB) *CoupleStore {
	return &CoupleStore{db: db}
}

func scanCouple(scanner interface{ Scan(...any) error }) (*model.Couple, error) {
	var c model.Couple
	var dueDate sql.NullTime
	err := scanner.Scan(&c.ID, &c.Code, &c.Name, &dueDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}
	return &c, nil
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var lastLogin sql.NullTime
	err := scanner.Scan(&p.ID, &p.CoupleID, &p.Gender, &p.Name, &p.HasPIN, &lastLogin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		p.LastLoginAt = &lastLogin.Time
	}
	return &p, nil
}

const coupleCols = `id, code, name, due_date, created_at, updated_at`
const profileCols = `id, couple_id, gender, name, pin IS NOT NULL, last_login_at, created_at, updated_at`

// Create inserts a couple with a generated public code and one profile
// per gender slot. PINs are set separately.
func (s *CoupleStore) Create(name string, maleName, femaleName string) (*model.Couple, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	code := uuid.NewString()
	result, err := tx.Exec(`INSERT INTO couples (code, name) VALUES (?, ?)`, code, name)
	if err != nil {
		return nil, fmt.Errorf("insert couple: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for gender, profileName := range map[string]string{
		model.GenderMale:   maleName,
		model.GenderFemale: femaleName,
	} {
		if _, err := tx.Exec(
			`INSERT INTO profiles (couple_id, gender, name) VALUES (?, ?, ?)`,
			id, gender, profileName,
		); err != nil {
			return nil, fmt.Errorf("insert %s profile: %w", gender, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *CoupleStore) GetByID(id int64) (*model.Couple, error) {
	row := s.db.QueryRow(`SELECT `+coupleCols+` FROM couples WHERE id = ?`, id)
	c, err := scanCouple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get couple: %w", err)
	}
	return c, nil
}

func (s *CoupleStore) GetByCode(code string) (*model.Couple, error) {
	row := s.db.QueryRow(`SELECT `+coupleCols+` FROM couples WHERE code = ?`, code)
	c, err := scanCouple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get couple by code: %w", err)
	}
	return c, nil
}

func (s *CoupleStore) Update(id int64, name string, dueDate *sql.NullTime) (*model.Couple, error) {
	if dueDate != nil {
		_, err := s.db.Exec(
			`UPDATE couples SET name = ?, due_date = ?, updated_at = datetime('now') WHERE id = ?`,
			name, *dueDate, id,
		)
		if err != nil {
			return nil, fmt.Errorf("update couple: %w", err)
		}
	} else {
		_, err := s.db.Exec(
			`UPDATE couples SET name = ?, updated_at = datetime('now') WHERE id = ?`,
			name, id,
		)
		if err != nil {
			return nil, fmt.Errorf("update couple: %w", err)
		}
	}
	return s.GetByID(id)
}

func (s *CoupleStore) List(limit, offset int) ([]model.Couple, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+coupleCols+` FROM couples ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query couples: %w", err)
	}
	defer rows.Close()

	var couples []model.Couple
	for rows.Next() {
		c, err := scanCouple(rows)
		if err != nil {
			return nil, fmt.Errorf("scan couple: %w", err)
		}
		couples = append(couples, *c)
	}
	return couples, rows.Err()
}

// GetProfile returns the profile in the given gender slot, or nil if
// the couple or slot does not exist.
func (s *CoupleStore) GetProfile(coupleID int64, gender string) (*model.Profile, error) {
	row := s.db.QueryRow(
		`SELECT `+profileCols+` FROM profiles WHERE couple_id = ? AND gender = ?`,
		coupleID, gender,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *CoupleStore) GetProfileByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

func (s *CoupleStore) ListProfiles(coupleID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT `+profileCols+` FROM profiles WHERE couple_id = ? ORDER BY gender`,
		coupleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *CoupleStore) UpdateProfileName(id int64, name string) (*model.Profile, error) {
	_, err := s.db.Exec(
		`UPDATE profiles SET name = ?, updated_at = datetime('now') WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile name: %w", err)
	}
	return s.GetProfileByID(id)
}

func (s *CoupleStore) SetPIN(coupleID int64, gender, hashedPIN string) error {
	_, err := s.db.Exec(
		`UPDATE profiles SET pin = ?, updated_at = datetime('now') WHERE couple_id = ? AND gender = ?`,
		hashedPIN, coupleID, gender,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *CoupleStore) ClearPIN(coupleID int64, gender string) error {
	_, err := s.db.Exec(
		`UPDATE profiles SET pin = NULL, updated_at = datetime('now') WHERE couple_id = ? AND gender = ?`,
		coupleID, gender,
	)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns the stored PIN hash for a gender slot, or "" if
// no PIN is set.
func (s *CoupleStore) GetPINHash(coupleID int64, gender string) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(
		`SELECT pin FROM profiles WHERE couple_id = ? AND gender = ?`,
		coupleID, gender,
	).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("profile not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}

func (s *CoupleStore) UpdateLastLogin(coupleID int64, gender string) error {
	_, err := s.db.Exec(
		`UPDATE profiles SET last_login_at = datetime('now') WHERE couple_id = ? AND gender = ?`,
		coupleID, gender,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
