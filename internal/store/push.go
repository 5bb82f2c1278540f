package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehq/cradle/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var p model.PushSubscription
	err := scanner.Scan(&p.ID, &p.CoupleID, &p.ProfileID, &p.DeviceID, &p.Endpoint, &p.P256dhKey, &p.AuthKey, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const pushCols = `id, couple_id, profile_id, device_id, endpoint, p256dh_key, auth_key, created_at`

// Upsert registers a subscription, replacing keys for a re-subscribed endpoint.
func (s *PushStore) Upsert(coupleID, profileID int64, deviceID, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (couple_id, profile_id, device_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (endpoint) DO UPDATE SET couple_id = excluded.couple_id, profile_id = excluded.profile_id,
		   device_id = excluded.device_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		coupleID, profileID, deviceID, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return scanPushSubscription(row)
}

func (s *PushStore) ListByCouple(coupleID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT `+pushCols+` FROM push_subscriptions WHERE couple_id = ?`, coupleID)
	if err != nil {
		return nil, fmt.Errorf("query push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListCoupleIDs returns the distinct couples with at least one subscription.
func (s *PushStore) ListCoupleIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT couple_id FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("query couple ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan couple id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PushStore) Delete(id, coupleID int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND couple_id = ?`, id, coupleID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

// WasSent reports whether a notification was already recorded for the
// given reference, deduplicating scheduler ticks.
func (s *PushStore) WasSent(coupleID int64, notifType, refID string, leadMinutes int) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sent_notifications WHERE couple_id = ? AND notif_type = ? AND ref_id = ? AND lead_minutes = ?`,
		coupleID, notifType, refID, leadMinutes,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent notification: %w", err)
	}
	return count > 0, nil
}

func (s *PushStore) RecordSent(coupleID int64, notifType, refID string, leadMinutes int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sent_notifications (couple_id, notif_type, ref_id, lead_minutes) VALUES (?, ?, ?, ?)`,
		coupleID, notifType, refID, leadMinutes,
	)
	if err != nil {
		return fmt.Errorf("record sent notification: %w", err)
	}
	return nil
}
