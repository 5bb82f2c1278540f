package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/backup"
	"github.com/cradlehq/cradle/internal/email"
	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/store"
)

const (
	adminTokenTTL  = 12 * time.Hour
	inviteTokenTTL = 24 * time.Hour
)

type AdminHandler struct {
	admins    *store.AdminStore
	couples   *store.CoupleStore
	sessions  *store.SessionStore
	content   *store.ContentStore
	backups   *store.BackupStore
	manager   *backup.Manager
	email     *email.Client
	jwtSecret string
	logger    *slog.Logger
}

func NewAdminHandler(
	as *store.AdminStore,
	cs *store.CoupleStore,
	ss *store.SessionStore,
	cts *store.ContentStore,
	bs *store.BackupStore,
	manager *backup.Manager,
	ec *email.Client,
	jwtSecret string,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		admins:    as,
		couples:   cs,
		sessions:  ss,
		content:   cts,
		backups:   bs,
		manager:   manager,
		email:     ec,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login. A paused account fails with 403,
// distinct from bad credentials.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := h.admins.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("admin lookup", "error", err)
		writeError(w, http.StatusServiceUnavailable, "try again later")
		return
	}
	if admin == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !admin.Active {
		writeError(w, http.StatusForbidden, "account is paused")
		return
	}

	token, err := auth.NewAdminToken(h.jwtSecret, adminTokenTTL, auth.AdminClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
	})
	if err != nil {
		h.logger.Error("sign admin token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	if err := h.admins.UpdateLastLogin(admin.ID); err != nil {
		h.logger.Error("update admin last login", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": admin,
	})
}

type createAdminRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Create handles POST /api/admin/admins. The new account starts with an
// unusable password; an invite email carries a short-lived token the
// invitee exchanges for a password of their own.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !slices.Contains(model.AdminRoles, req.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	admin, err := h.admins.Create(req.Email, req.Name, "*", req.Role, req.Permissions)
	if err != nil {
		h.logger.Error("create admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create admin")
		return
	}

	invite, err := auth.NewAdminToken(h.jwtSecret, inviteTokenTTL, auth.AdminClaims{
		AdminID:  admin.ID,
		Email:    admin.Email,
		Role:     admin.Role,
		TokenUse: auth.TokenUseInvite,
	})
	if err != nil {
		h.logger.Error("sign invite token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	if h.email != nil && h.email.Configured() {
		if err := h.email.SendAdminInvite(admin.Email, admin.Name, invite); err != nil {
			h.logger.Error("send admin invite", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, admin)
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AcceptInvite handles POST /api/admin/accept-invite
func (h *AdminHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	claims, err := auth.ParseAdminToken(h.jwtSecret, req.Token)
	if err != nil || claims.TokenUse != auth.TokenUseInvite {
		writeError(w, http.StatusUnauthorized, "invalid or expired invite")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash admin password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}
	if err := h.admins.UpdatePassword(claims.AdminID, string(hash)); err != nil {
		h.logger.Error("update admin password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/admin/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List()
	if err != nil {
		h.logger.Error("list admins", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list admins")
		return
	}
	writeList(w, admins)
}

type updateRoleRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// UpdateRole handles PUT /api/admin/admins/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !slices.Contains(model.AdminRoles, req.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	admin, err := h.admins.UpdateRole(id, req.Role, req.Permissions)
	if err != nil {
		h.logger.Error("update admin role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles PUT /api/admin/admins/{id}/active
func (h *AdminHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.admins.SetActive(id, req.Active); err != nil {
		h.logger.Error("set admin active", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update admin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCouples handles GET /api/admin/couples?limit=...&offset=...
func (h *AdminHandler) ListCouples(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	couples, err := h.couples.List(limit, offset)
	if err != nil {
		h.logger.Error("list couples", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list couples")
		return
	}
	writeList(w, couples)
}

// GetCouple handles GET /api/admin/couples/{id}
func (h *AdminHandler) GetCouple(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	couple, err := h.couples.GetByID(id)
	if err != nil {
		h.logger.Error("get couple", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get couple")
		return
	}
	if couple == nil {
		writeError(w, http.StatusNotFound, "couple not found")
		return
	}

	profiles, err := h.couples.ListProfiles(couple.ID)
	if err != nil {
		h.logger.Error("list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profiles")
		return
	}
	sessions, err := h.sessions.ListByCouple(couple.ID)
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"couple":   couple,
		"profiles": profiles,
		"sessions": sessions,
	})
}

type upsertContentRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpsertContent handles PUT /api/admin/content/{slug}
func (h *AdminHandler) UpsertContent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req upsertContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	page, err := h.content.Upsert(slug, req.Title, req.Body)
	if err != nil {
		h.logger.Error("upsert content", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// RunBackup handles POST /api/admin/backups/run
func (h *AdminHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	record, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListBackups handles GET /api/admin/backups
func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.backups.List(limit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": records,
	})
}

// DownloadBackup handles GET /api/admin/backups/{id}/download
func (h *AdminHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		writeError(w, http.StatusNotFound, "backup not available")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	io.Copy(w, body)
}
