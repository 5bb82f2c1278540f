package handler

import (
	"log/slog"
	"net/http"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/store"
	"github.com/cradlehq/cradle/internal/websocket"
)

type DeviceHandler struct {
	sessions *store.SessionStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewDeviceHandler(ss *store.SessionStore, hub *websocket.Hub, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{sessions: ss, hub: hub, logger: logger}
}

// List handles GET /api/devices, returning every session for the couple
// so either partner can see which devices are signed in.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	sessions, err := h.sessions.ListByCouple(coupleID)
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if sessions == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Logout handles POST /api/devices/{id}/logout, ending a session on
// another device. The displaced device is told through the hub so its
// watcher can log it out at most once.
func (h *DeviceHandler) Logout(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sess, err := h.sessions.GetByID(id)
	if err != nil {
		h.logger.Error("get session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out device")
		return
	}
	if sess == nil || sess.CoupleID != coupleID {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if _, err := h.sessions.Invalidate(id); err != nil {
		h.logger.Error("invalidate session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out device")
		return
	}

	h.hub.SessionInvalidated(websocket.SessionKey{
		CoupleID: sess.CoupleID,
		Gender:   sess.Gender,
		DeviceID: sess.DeviceID,
	})

	w.WriteHeader(http.StatusNoContent)
}
