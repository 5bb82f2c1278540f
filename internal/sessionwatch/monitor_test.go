package sessionwatch

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/websocket"
)

type fakeSessions struct {
	sess *model.DeviceSession
	err  error
}

func (f *fakeSessions) GetByDevice(coupleID int64, gender, deviceID string) (*model.DeviceSession, error) {
	return f.sess, f.err
}

func activeSession() *model.DeviceSession {
	return &model.DeviceSession{ID: 1, Status: model.SessionActive}
}

func TestWatchFiresOnInvalidation(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	m := NewMonitor(hub, &fakeSessions{sess: activeSession()}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	m.Watch(key, func() { fired++ })

	hub.SessionInvalidated(key)

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestWatchFiresAtMostOnce(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	m := NewMonitor(hub, &fakeSessions{sess: activeSession()}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	m.Watch(key, func() { fired++ })

	hub.SessionInvalidated(key)
	hub.SessionInvalidated(key)
	hub.SessionInvalidated(key)

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestWatchFiresImmediatelyWhenAlreadyInvalidated(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	sess := &model.DeviceSession{ID: 1, Status: model.SessionInvalidated}
	m := NewMonitor(hub, &fakeSessions{sess: sess}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	m.Watch(key, func() { fired++ })

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	// A late event must not fire again.
	hub.SessionInvalidated(key)
	if fired != 1 {
		t.Fatalf("fired after late event = %d, want 1", fired)
	}
}

func TestWatchFiresWhenSessionMissing(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	m := NewMonitor(hub, &fakeSessions{sess: nil}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	m.Watch(key, func() { fired++ })

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestWatchSetupFailureIsSilent(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	m := NewMonitor(hub, &fakeSessions{err: errors.New("db closed")}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	m.Watch(key, func() { fired++ })

	if fired != 0 {
		t.Fatalf("fired = %d, want 0 on setup failure", fired)
	}

	// The watch stays armed for live events.
	hub.SessionInvalidated(key)
	if fired != 1 {
		t.Fatalf("fired after live event = %d, want 1", fired)
	}
}

func TestStopPreventsFiring(t *testing.T) {
	hub := websocket.NewHub(slog.Default())
	m := NewMonitor(hub, &fakeSessions{sess: activeSession()}, slog.Default())
	key := websocket.SessionKey{CoupleID: 1, Gender: "female", DeviceID: "phone"}

	fired := 0
	w := m.Watch(key, func() { fired++ })
	w.Stop()

	hub.SessionInvalidated(key)

	if fired != 0 {
		t.Fatalf("fired = %d, want 0 after Stop", fired)
	}
}
