package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

const backupCols = `id, key, size_bytes, created_at`

func (s *BackupStore) Record(key string, sizeBytes int64) (*model.BackupRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO backups (key, size_bytes) VALUES (?, ?)`,
		key, sizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var b model.BackupRecord
	err = s.db.QueryRow(`SELECT `+backupCols+` FROM backups WHERE id = ?`, id).
		Scan(&b.ID, &b.Key, &b.SizeBytes, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get backup record: %w", err)
	}
	return &b, nil
}

func (s *BackupStore) List(limit int) ([]model.BackupRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+backupCols+` FROM backups ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	var records []model.BackupRecord
	for rows.Next() {
		var b model.BackupRecord
		if err := rows.Scan(&b.ID, &b.Key, &b.SizeBytes, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, b)
	}
	return records, rows.Err()
}

func (s *BackupStore) GetByID(id int64) (*model.BackupRecord, error) {
	var b model.BackupRecord
	err := s.db.QueryRow(`SELECT `+backupCols+` FROM backups WHERE id = ?`, id).
		Scan(&b.ID, &b.Key, &b.SizeBytes, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup record: %w", err)
	}
	return &b, nil
}
