// Package sessionwatch observes device sessions and fires a logout
// callback when a session is ended by a login on another device.
package sessionwatch

import (
	"log/slog"
	"sync"

	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/websocket"
)

// Subscriber is the hub surface the monitor needs.
type Subscriber interface {
	Subscribe(key websocket.SessionKey, fn func(websocket.Message)) func()
}

// SessionGetter checks whether a device still holds an active session.
type SessionGetter interface {
	GetByDevice(coupleID int64, gender, deviceID string) (*model.DeviceSession, error)
}

// Monitor creates watches over device sessions.
type Monitor struct {
	hub      Subscriber
	sessions SessionGetter
	logger   *slog.Logger
}

func NewMonitor(hub Subscriber, sessions SessionGetter, logger *slog.Logger) *Monitor {
	return &Monitor{hub: hub, sessions: sessions, logger: logger}
}

// Watch is a single observation of one device session.
type Watch struct {
	mu    sync.Mutex
	fired bool
	unsub func()
}

// Watch begins observing the session identified by key. onInvalidated
// runs at most once, after the watch has detached itself, so a second
// invalidation event can never trigger a second logout. If the initial
// session check fails the watch stays armed on live events only.
func (m *Monitor) Watch(key websocket.SessionKey, onInvalidated func()) *Watch {
	w := &Watch{}
	w.unsub = m.hub.Subscribe(key, func(msg websocket.Message) {
		if msg.Type == websocket.TypeSessionInvalidated {
			w.fire(onInvalidated)
		}
	})

	// The session may have been invalidated before this watch attached.
	sess, err := m.sessions.GetByDevice(key.CoupleID, key.Gender, key.DeviceID)
	if err != nil {
		m.logger.Warn("session watch initial check failed", "error", err)
		return w
	}
	if sess == nil || sess.Status != model.SessionActive {
		w.fire(onInvalidated)
	}
	return w
}

func (w *Watch) fire(onInvalidated func()) {
	w.mu.Lock()
	if w.fired {
		w.mu.Unlock()
		return
	}
	w.fired = true
	unsub := w.unsub
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	onInvalidated()
}

// Stop detaches the watch without firing the callback.
func (w *Watch) Stop() {
	w.mu.Lock()
	w.fired = true
	unsub := w.unsub
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
