package websocket

import (
	"log"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/cradlehq/cradle/internal/auth"
)

// StatusSessionInvalidated is the close code sent to a client whose
// session was ended by a login on another device.
const StatusSessionInvalidated = ws.StatusCode(4001)

// WatchFunc attaches a session watch for the given key and returns a
// stop function that detaches it without firing.
type WatchFunc func(key SessionKey, onInvalidated func()) (stop func())

// HandleWebSocket upgrades an authenticated request to a WebSocket and
// runs it as a hub client keyed by the caller's session. When watch is
// non-nil the connection is closed if the session is invalidated,
// including sessions displaced before the socket ever connected.
func HandleWebSocket(hub *Hub, watch WatchFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // App clients connect from a custom scheme origin
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		key := SessionKey{CoupleID: ac.CoupleID, Gender: ac.Gender, DeviceID: ac.DeviceID}
		client := NewClient(hub, conn, key)
		if watch != nil {
			stop := watch(key, func() {
				conn.Close(StatusSessionInvalidated, "session invalidated")
			})
			defer stop()
		}
		client.Run(r.Context())
	}
}
