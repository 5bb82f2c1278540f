package store

import (
	"testing"

	"github.com/cradlehq/cradle/internal/model"
)

func setupPushTest(t *testing.T) (*PushStore, int64, int64) {
	t.Helper()
	db := newTestDB(t)
	cs := NewCoupleStore(db)
	couple := createTestCouple(t, cs)
	profile, err := cs.GetProfile(couple.ID, model.GenderFemale)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	return NewPushStore(db), couple.ID, profile.ID
}

func TestPushUpsert(t *testing.T) {
	ps, coupleID, profileID := setupPushTest(t)

	sub, err := ps.Upsert(coupleID, profileID, "device-1", "https://push.example/abc", "p256dh-key", "auth-key")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}

	// Re-subscribing the same endpoint replaces keys without duplicating.
	sub2, err := ps.Upsert(coupleID, profileID, "device-1", "https://push.example/abc", "new-p256dh", "new-auth")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if sub2.ID != sub.ID {
		t.Errorf("re-subscribe created a new row: %d vs %d", sub2.ID, sub.ID)
	}
	if sub2.P256dhKey != "new-p256dh" {
		t.Errorf("p256dh = %q, want replaced key", sub2.P256dhKey)
	}

	subs, err := ps.ListByCouple(coupleID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("got %d subscriptions, want 1", len(subs))
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	ps, coupleID, profileID := setupPushTest(t)

	if _, err := ps.Upsert(coupleID, profileID, "device-1", "https://push.example/abc", "k", "a"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example/abc"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, err := ps.ListByCouple(coupleID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("got %d subscriptions after delete, want 0", len(subs))
	}
}

func TestPushSentNotificationDedup(t *testing.T) {
	ps, coupleID, _ := setupPushTest(t)

	sent, err := ps.WasSent(coupleID, model.NotifTypeAppointmentReminder, "appointment-1", 60)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("nothing recorded yet")
	}

	if err := ps.RecordSent(coupleID, model.NotifTypeAppointmentReminder, "appointment-1", 60); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	// Recording twice is harmless.
	if err := ps.RecordSent(coupleID, model.NotifTypeAppointmentReminder, "appointment-1", 60); err != nil {
		t.Fatalf("record sent again: %v", err)
	}

	sent, err = ps.WasSent(coupleID, model.NotifTypeAppointmentReminder, "appointment-1", 60)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if !sent {
		t.Error("expected recorded notification to be found")
	}

	// A different lead time is a different notification.
	sent, err = ps.WasSent(coupleID, model.NotifTypeAppointmentReminder, "appointment-1", 15)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("different lead time should not dedup")
	}
}
