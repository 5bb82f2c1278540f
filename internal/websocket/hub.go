package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// SessionKey identifies a logged-in device slot. Session events are
// routed by key so only the affected device hears about them.
type SessionKey struct {
	CoupleID int64
	Gender   string
	DeviceID string
}

// Message is a real-time event pushed to connected clients.
type Message struct {
	Type     string         `json:"type"`
	DeviceID string         `json:"device_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

const (
	TypeSessionInvalidated = "session_invalidated"
	TypeNewMessage         = "new_message"
	TypeAppointmentChanged = "appointment_changed"
)

// Hub maintains active WebSocket clients and in-process watchers.
// Clients are connections from devices; watchers are server-side
// callbacks registered by the session monitor.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	watchers map[SessionKey]map[int64]func(Message)
	nextID   int64
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		watchers: make(map[SessionKey]map[int64]func(Message)),
		logger:   logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Subscribe registers an in-process callback for events on a session key.
// The returned function removes the subscription; calling it more than
// once is harmless.
func (h *Hub) Subscribe(key SessionKey, fn func(Message)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.watchers[key] == nil {
		h.watchers[key] = make(map[int64]func(Message))
	}
	h.watchers[key][id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		if m, ok := h.watchers[key]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(h.watchers, key)
			}
		}
		h.mu.Unlock()
	}
}

// SessionInvalidated notifies the device bound to key that its session
// was ended by a login elsewhere. Both the device's WebSocket connection
// and any in-process watchers receive the event.
func (h *Hub) SessionInvalidated(key SessionKey) {
	msg := Message{Type: TypeSessionInvalidated, DeviceID: key.DeviceID}
	h.sendTo(key, msg)
	h.notifyWatchers(key, msg)
}

// BroadcastCouple sends a message to every connected device of a couple.
func (h *Hub) BroadcastCouple(coupleID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.key.CoupleID != coupleID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block
		}
	}
}

func (h *Hub) sendTo(key SessionKey, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.key != key {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) notifyWatchers(key SessionKey, msg Message) {
	h.mu.RLock()
	fns := make([]func(Message), 0, len(h.watchers[key]))
	for _, fn := range h.watchers[key] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	// Callbacks run outside the lock so a watcher may unsubscribe itself.
	for _, fn := range fns {
		fn(msg)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
