package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/pin"
	"github.com/cradlehq/cradle/internal/store"
	"github.com/cradlehq/cradle/internal/websocket"
)

type AuthHandler struct {
	couples  *store.CoupleStore
	sessions *store.SessionStore
	verifier *pin.Verifier
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewAuthHandler(
	cs *store.CoupleStore,
	ss *store.SessionStore,
	verifier *pin.Verifier,
	hub *websocket.Hub,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		couples:  cs,
		sessions: ss,
		verifier: verifier,
		hub:      hub,
		logger:   logger,
	}
}

type registerRequest struct {
	CoupleName string `json:"couple_name"`
	MaleName   string `json:"male_name"`
	FemaleName string `json:"female_name"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.CoupleName = strings.TrimSpace(req.CoupleName)
	req.MaleName = strings.TrimSpace(req.MaleName)
	req.FemaleName = strings.TrimSpace(req.FemaleName)
	if req.CoupleName == "" || req.MaleName == "" || req.FemaleName == "" {
		writeError(w, http.StatusBadRequest, "couple_name, male_name, and female_name are required")
		return
	}

	couple, err := h.couples.Create(req.CoupleName, req.MaleName, req.FemaleName)
	if err != nil {
		h.logger.Error("register couple", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create couple")
		return
	}

	profiles, err := h.couples.ListProfiles(couple.ID)
	if err != nil {
		h.logger.Error("list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profiles")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"couple":   couple,
		"profiles": profiles,
	})
}

type loginRequest struct {
	CoupleCode string `json:"couple_code"`
	Gender     string `json:"gender"`
	PIN        string `json:"pin"`
	DeviceID   string `json:"device_id"`
}

// Login handles POST /api/login. A successful login creates a device
// session and ends any previous session on the same gender slot; the
// displaced devices are notified through the hub.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.CoupleCode == "" || req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "couple_code and device_id are required")
		return
	}
	if !model.ValidGender(req.Gender) {
		writeError(w, http.StatusBadRequest, "gender must be male or female")
		return
	}

	couple, err := h.couples.GetByCode(req.CoupleCode)
	if err != nil {
		h.logger.Error("login couple lookup", "error", err)
		writeError(w, http.StatusServiceUnavailable, "try again later")
		return
	}
	if couple == nil {
		writeError(w, http.StatusUnauthorized, "unknown couple code")
		return
	}

	if err := h.verifier.Verify(couple.ID, req.Gender, req.PIN); err != nil {
		h.writeVerifyError(w, err)
		return
	}

	sess, displaced, err := h.sessions.Create(couple.ID, req.Gender, req.DeviceID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	for _, deviceID := range displaced {
		h.hub.SessionInvalidated(websocket.SessionKey{
			CoupleID: couple.ID,
			Gender:   req.Gender,
			DeviceID: deviceID,
		})
	}

	if err := h.couples.UpdateLastLogin(couple.ID, req.Gender); err != nil {
		h.logger.Error("update last login", "error", err)
	}

	profile, err := h.couples.GetProfile(couple.ID, req.Gender)
	if err != nil || profile == nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   sess.Token,
		"session": sess,
		"couple":  couple,
		"profile": profile,
	})
}

func (h *AuthHandler) writeVerifyError(w http.ResponseWriter, err error) {
	var locked *pin.LockedError
	switch {
	case errors.Is(err, pin.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &locked):
		writeJSON(w, http.StatusLocked, map[string]any{
			"error":               locked.Error(),
			"retry_after_seconds": int(math.Ceil(locked.Remaining.Seconds())),
		})
	case errors.Is(err, pin.ErrMismatch), errors.Is(err, pin.ErrNoPIN):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, pin.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "verification temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "verification failed")
	}
}

type setPINRequest struct {
	CoupleCode string `json:"couple_code"`
	Gender     string `json:"gender"`
	PIN        string `json:"pin"`
	CurrentPIN string `json:"current_pin"`
}

// SetPIN handles POST /api/pin. Setting a first PIN needs no current
// PIN; changing an existing one does.
func (h *AuthHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req setPINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !model.ValidGender(req.Gender) {
		writeError(w, http.StatusBadRequest, "gender must be male or female")
		return
	}
	if !pin.ValidFormat(req.PIN) {
		writeError(w, http.StatusBadRequest, "pin must be exactly 4 digits")
		return
	}

	couple, err := h.couples.GetByCode(req.CoupleCode)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "try again later")
		return
	}
	if couple == nil {
		writeError(w, http.StatusUnauthorized, "unknown couple code")
		return
	}

	existing, err := h.couples.GetPINHash(couple.ID, req.Gender)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "try again later")
		return
	}
	if existing != "" {
		if err := h.verifier.Verify(couple.ID, req.Gender, req.CurrentPIN); err != nil {
			h.writeVerifyError(w, err)
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}
	if err := h.couples.SetPIN(couple.ID, req.Gender, string(hash)); err != nil {
		h.logger.Error("set pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}

	h.verifier.Reset(couple.ID, req.Gender)
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /api/logout for the authenticated session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if _, err := h.sessions.Invalidate(ac.SessionID); err != nil {
		h.logger.Error("invalidate session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
