package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/store"
	"github.com/cradlehq/cradle/internal/websocket"
)

type AppointmentHandler struct {
	appointments *store.AppointmentStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewAppointmentHandler(as *store.AppointmentStore, hub *websocket.Hub, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: as, hub: hub, logger: logger}
}

type appointmentRequest struct {
	Title           string    `json:"title"`
	Notes           string    `json:"notes"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ReminderMinutes *int      `json:"reminder_minutes"`
}

func (req *appointmentRequest) validate() string {
	if req.Title == "" {
		return "title is required"
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return "start_time and end_time are required"
	}
	if !req.EndTime.After(req.StartTime) {
		return "end_time must be after start_time"
	}
	if req.ReminderMinutes != nil && *req.ReminderMinutes <= 0 {
		return "reminder_minutes must be positive"
	}
	return ""
}

// Create handles POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	appt, err := h.appointments.Create(ac.CoupleID, req.Title, req.Notes, req.Location, req.StartTime, req.EndTime, req.ReminderMinutes, &ac.ProfileID)
	if err != nil {
		h.logger.Error("create appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	h.hub.BroadcastCouple(ac.CoupleID, websocket.Message{
		Type:  websocket.TypeAppointmentChanged,
		Extra: map[string]any{"id": appt.ID, "action": "created"},
	})
	writeJSON(w, http.StatusCreated, appt)
}

// List handles GET /api/appointments?from=...&to=... (RFC 3339)
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be RFC 3339")
		return
	}

	appts, err := h.appointments.ListByCouple(coupleID, from, to)
	if err != nil {
		h.logger.Error("list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	writeList(w, appts)
}

// Get handles GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	appt, err := h.appointments.GetByID(id)
	if err != nil {
		h.logger.Error("get appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if appt == nil || appt.CoupleID != coupleID {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PUT /api/appointments/{id}
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.appointments.GetByID(id)
	if err != nil {
		h.logger.Error("get appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if existing == nil || existing.CoupleID != coupleID {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	appt, err := h.appointments.Update(id, req.Title, req.Notes, req.Location, req.StartTime, req.EndTime, req.ReminderMinutes)
	if err != nil {
		h.logger.Error("update appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	h.hub.BroadcastCouple(coupleID, websocket.Message{
		Type:  websocket.TypeAppointmentChanged,
		Extra: map[string]any{"id": appt.ID, "action": "updated"},
	})
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /api/appointments/{id}
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.appointments.GetByID(id)
	if err != nil {
		h.logger.Error("get appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get appointment")
		return
	}
	if existing == nil || existing.CoupleID != coupleID {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	if err := h.appointments.Delete(id); err != nil {
		h.logger.Error("delete appointment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}

	h.hub.BroadcastCouple(coupleID, websocket.Message{
		Type:  websocket.TypeAppointmentChanged,
		Extra: map[string]any{"id": id, "action": "deleted"},
	})
	w.WriteHeader(http.StatusNoContent)
}
