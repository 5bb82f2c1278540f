package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/push"
	"github.com/cradlehq/cradle/internal/store"
	"github.com/cradlehq/cradle/internal/websocket"
)

const maxMessageLength = 2000

type MessageHandler struct {
	messages  *store.MessageStore
	hub       *websocket.Hub
	scheduler *push.Scheduler
	logger    *slog.Logger
}

func NewMessageHandler(ms *store.MessageStore, hub *websocket.Hub, scheduler *push.Scheduler, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: ms, hub: hub, scheduler: scheduler, logger: logger}
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}
	if len(req.Body) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "body too long")
		return
	}

	msg, err := h.messages.Create(ac.CoupleID, ac.ProfileID, req.Body)
	if err != nil {
		h.logger.Error("create message", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	h.hub.BroadcastCouple(ac.CoupleID, websocket.Message{
		Type:  websocket.TypeNewMessage,
		Extra: map[string]any{"id": msg.ID, "sender_id": msg.SenderID},
	})
	if h.scheduler != nil {
		go h.scheduler.SendMessageNotification(ac.CoupleID, ac.ProfileID, req.Body)
	}

	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /api/messages?before=...&limit=...
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	var before int64
	if s := r.URL.Query().Get("before"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be a message id")
			return
		}
		before = v
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 200 {
			writeError(w, http.StatusBadRequest, "limit must be 1-200")
			return
		}
		limit = v
	}

	msgs, err := h.messages.List(coupleID, before, limit)
	if err != nil {
		h.logger.Error("list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeList(w, msgs)
}

type markReadRequest struct {
	UpToID int64 `json:"up_to_id"`
}

// MarkRead handles POST /api/messages/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UpToID <= 0 {
		writeError(w, http.StatusBadRequest, "up_to_id is required")
		return
	}

	count, err := h.messages.MarkRead(ac.CoupleID, ac.ProfileID, req.UpToID)
	if err != nil {
		h.logger.Error("mark read", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark messages read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": count})
}

// UnreadCount handles GET /api/messages/unread
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	count, err := h.messages.UnreadCount(ac.CoupleID, ac.ProfileID)
	if err != nil {
		h.logger.Error("unread count", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count unread messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}
