package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type ContentStore struct {
	db *sql.DB
}

func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

const contentCols = `id, slug, title, body, updated_at`

func (s *ContentStore) GetBySlug(slug string) (*model.ContentPage, error) {
	var p model.ContentPage
	err := s.db.QueryRow(`SELECT `+contentCols+` FROM content_pages WHERE slug = ?`, slug).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content page: %w", err)
	}
	return &p, nil
}

func (s *ContentStore) List() ([]model.ContentPage, error) {
	rows, err := s.db.Query(`SELECT ` + contentCols + ` FROM content_pages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("query content pages: %w", err)
	}
	defer rows.Close()

	var pages []model.ContentPage
	for rows.Next() {
		var p model.ContentPage
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan content page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *ContentStore) Upsert(slug, title, body string) (*model.ContentPage, error) {
	_, err := s.db.Exec(
		`INSERT INTO content_pages (slug, title, body) VALUES (?, ?, ?)
		 ON CONFLICT (slug) DO UPDATE SET title = excluded.title, body = excluded.body, updated_at = datetime('now')`,
		slug, title, body,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert content page: %w", err)
	}
	return s.GetBySlug(slug)
}
