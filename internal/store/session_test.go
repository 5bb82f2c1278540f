package store

import (
	"testing"

	"github.com/cradlehq/cradle/internal/model"
)

func setupSessionTest(t *testing.T) (*SessionStore, int64) {
	t.Helper()
	db := newTestDB(t)
	couple := createTestCouple(t, NewCoupleStore(db))
	return NewSessionStore(db), couple.ID
}

func TestSessionCreateAndGetByToken(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	sess, displaced, err := ss.Create(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected a token")
	}
	if sess.Status != model.SessionActive {
		t.Errorf("status = %q, want %q", sess.Status, model.SessionActive)
	}
	if len(displaced) != 0 {
		t.Errorf("first login displaced %v, want none", displaced)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("got %+v, want session %d", got, sess.ID)
	}

	missing, err := ss.GetByToken("bogus")
	if err != nil {
		t.Fatalf("get by unknown token: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown token, got %+v", missing)
	}
}

func TestSessionCreateDisplacesSameSlot(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	first, _, err := ss.Create(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	second, displaced, err := ss.Create(coupleID, model.GenderFemale, "device-2")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if len(displaced) != 1 || displaced[0] != "device-1" {
		t.Errorf("displaced = %v, want [device-1]", displaced)
	}

	// The first token no longer resolves.
	got, err := ss.GetByToken(first.Token)
	if err != nil {
		t.Fatalf("get displaced token: %v", err)
	}
	if got != nil {
		t.Errorf("displaced session still resolves: %+v", got)
	}

	// At most one active session per slot.
	sessions, err := ss.ListByCouple(coupleID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	active := 0
	for _, s := range sessions {
		if s.Status == model.SessionActive {
			active++
			if s.ID != second.ID {
				t.Errorf("active session is %d, want %d", s.ID, second.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("active sessions = %d, want 1", active)
	}
}

func TestSessionCreateDoesNotTouchOtherSlot(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	male, _, err := ss.Create(coupleID, model.GenderMale, "his-phone")
	if err != nil {
		t.Fatalf("male login: %v", err)
	}
	if _, _, err := ss.Create(coupleID, model.GenderFemale, "her-phone"); err != nil {
		t.Fatalf("female login: %v", err)
	}

	got, err := ss.GetByToken(male.Token)
	if err != nil {
		t.Fatalf("get male token: %v", err)
	}
	if got == nil {
		t.Error("male session should survive a female login")
	}
}

func TestSessionGetByDevice(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	sess, _, err := ss.Create(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, _, err := ss.Create(coupleID, model.GenderFemale, "device-2"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	// GetByDevice sees the invalidated session, unlike GetByToken.
	got, err := ss.GetByDevice(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("get by device: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("got %+v, want session %d", got, sess.ID)
	}
	if got.Status != model.SessionInvalidated {
		t.Errorf("status = %q, want %q", got.Status, model.SessionInvalidated)
	}

	missing, err := ss.GetByDevice(coupleID, model.GenderFemale, "never-seen")
	if err != nil {
		t.Fatalf("get unknown device: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown device, got %+v", missing)
	}
}

func TestSessionInvalidate(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	sess, _, err := ss.Create(coupleID, model.GenderMale, "his-phone")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	inv, err := ss.Invalidate(sess.ID)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if inv.Status != model.SessionInvalidated {
		t.Errorf("status = %q, want %q", inv.Status, model.SessionInvalidated)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("invalidated token should not resolve")
	}
}

func TestSessionGetByID(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	sess, _, err := ss.Create(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := ss.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.DeviceID != "device-1" {
		t.Fatalf("got %+v", got)
	}

	missing, err := ss.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing id: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing id, got %+v", missing)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, coupleID := setupSessionTest(t)

	sess, _, err := ss.Create(coupleID, model.GenderFemale, "device-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	count, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 0 {
		t.Errorf("deleted %d fresh sessions, want 0", count)
	}

	if _, err := ss.db.Exec(
		`UPDATE device_sessions SET expires_at = datetime('now', '-1 day') WHERE id = ?`, sess.ID,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	count, err = ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted %d sessions, want 1", count)
	}
}
