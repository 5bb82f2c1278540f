package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func scanMessage(scanner interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var readAt sql.NullTime
	err := scanner.Scan(&m.ID, &m.CoupleID, &m.SenderID, &m.Body, &readAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}

const messageCols = `id, couple_id, sender_id, body, read_at, created_at`

func (s *MessageStore) Create(coupleID, senderID int64, body string) (*model.Message, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (couple_id, sender_id, body) VALUES (?, ?, ?)`,
		coupleID, senderID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

// List returns up to limit messages for a couple, newest first. A
// before ID of 0 starts from the latest message.
func (s *MessageStore) List(coupleID int64, before int64, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + messageCols + ` FROM messages WHERE couple_id = ?`
	args := []any{coupleID}
	if before > 0 {
		query += ` AND id < ?`
		args = append(args, before)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// MarkRead marks all partner messages up to and including id as read.
func (s *MessageStore) MarkRead(coupleID, readerID, upToID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE messages SET read_at = datetime('now')
		 WHERE couple_id = ? AND sender_id != ? AND id <= ? AND read_at IS NULL`,
		coupleID, readerID, upToID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *MessageStore) UnreadCount(coupleID, readerID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE couple_id = ? AND sender_id != ? AND read_at IS NULL`,
		coupleID, readerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
