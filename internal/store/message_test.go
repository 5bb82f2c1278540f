package store

import (
	"fmt"
	"testing"

	"github.com/cradlehq/cradle/internal/model"
)

func setupMessageTest(t *testing.T) (*MessageStore, int64, int64, int64) {
	t.Helper()
	db := newTestDB(t)
	cs := NewCoupleStore(db)
	couple := createTestCouple(t, cs)
	male, err := cs.GetProfile(couple.ID, model.GenderMale)
	if err != nil {
		t.Fatalf("get male profile: %v", err)
	}
	female, err := cs.GetProfile(couple.ID, model.GenderFemale)
	if err != nil {
		t.Fatalf("get female profile: %v", err)
	}
	return NewMessageStore(db), couple.ID, male.ID, female.ID
}

func TestMessageCreateAndList(t *testing.T) {
	ms, coupleID, maleID, _ := setupMessageTest(t)

	m, err := ms.Create(coupleID, maleID, "on my way home")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if m.Body != "on my way home" {
		t.Errorf("body = %q", m.Body)
	}
	if m.ReadAt != nil {
		t.Error("new message should be unread")
	}

	messages, err := ms.List(coupleID, 0, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
}

func TestMessageListCursor(t *testing.T) {
	ms, coupleID, maleID, _ := setupMessageTest(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		m, err := ms.Create(coupleID, maleID, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, m.ID)
	}

	page, err := ms.List(coupleID, 0, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d messages, want 2", len(page))
	}
	if page[0].ID != ids[4] || page[1].ID != ids[3] {
		t.Errorf("page ids = %d, %d; want newest first", page[0].ID, page[1].ID)
	}

	next, err := ms.List(coupleID, page[1].ID, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(next) != 2 || next[0].ID != ids[2] {
		t.Errorf("second page starts at %d, want %d", next[0].ID, ids[2])
	}
}

func TestMessageMarkReadAndUnreadCount(t *testing.T) {
	ms, coupleID, maleID, femaleID := setupMessageTest(t)

	var last int64
	for i := 0; i < 3; i++ {
		m, err := ms.Create(coupleID, maleID, "hello")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		last = m.ID
	}
	// A message the reader sent themselves never counts as unread.
	if _, err := ms.Create(coupleID, femaleID, "hi back"); err != nil {
		t.Fatalf("create own message: %v", err)
	}

	unread, err := ms.UnreadCount(coupleID, femaleID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 3 {
		t.Errorf("unread = %d, want 3", unread)
	}

	marked, err := ms.MarkRead(coupleID, femaleID, last)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if marked != 3 {
		t.Errorf("marked = %d, want 3", marked)
	}

	unread, err = ms.UnreadCount(coupleID, femaleID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread after mark = %d, want 0", unread)
	}

	// Marking again is a no-op.
	marked, err = ms.MarkRead(coupleID, femaleID, last)
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if marked != 0 {
		t.Errorf("second mark = %d, want 0", marked)
	}
}
