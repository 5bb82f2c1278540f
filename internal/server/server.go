package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cradlehq/cradle/internal/backup"
	"github.com/cradlehq/cradle/internal/email"
	"github.com/cradlehq/cradle/internal/handler"
	"github.com/cradlehq/cradle/internal/middleware"
	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/pin"
	"github.com/cradlehq/cradle/internal/push"
	"github.com/cradlehq/cradle/internal/sessionwatch"
	"github.com/cradlehq/cradle/internal/store"
	ws "github.com/cradlehq/cradle/internal/websocket"
)

// Config carries the wiring the server cannot derive itself.
type Config struct {
	JWTSecret       string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	AlertEmail      string
	Backup          backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH        *handler.AuthHandler
	deviceH      *handler.DeviceHandler
	healthLogH   *handler.HealthLogHandler
	appointmentH *handler.AppointmentHandler
	messageH     *handler.MessageHandler
	contentH     *handler.ContentHandler
	pushH        *handler.PushHandler
	adminH       *handler.AdminHandler

	sessionStore *store.SessionStore
	coupleStore  *store.CoupleStore
	adminStore   *store.AdminStore

	monitor       *sessionwatch.Monitor
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	jwtSecret     string
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	coupleStore := store.NewCoupleStore(db)
	sessionStore := store.NewSessionStore(db)
	adminStore := store.NewAdminStore(db)
	healthLogStore := store.NewHealthLogStore(db)
	appointmentStore := store.NewAppointmentStore(db)
	messageStore := store.NewMessageStore(db)
	contentStore := store.NewContentStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	verifier := pin.NewVerifier(coupleStore)
	monitor := sessionwatch.NewMonitor(hub, sessionStore, logger.With("component", "sessionwatch"))

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, func(st backup.Status) {
		if st.State != backup.StateError {
			return
		}
		logger.Warn("backup failed", "error", st.Error)
		if emailClient != nil && emailClient.Configured() && cfg.AlertEmail != "" {
			if err := emailClient.SendBackupAlert(cfg.AlertEmail, st.Error); err != nil {
				logger.Error("send backup alert", "error", err)
			}
		}
	})

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushStore, appointmentStore)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push"))
	}

	return &Server{
		db:  db,
		hub: hub,

		authH:        handler.NewAuthHandler(coupleStore, sessionStore, verifier, hub, logger.With("component", "auth")),
		deviceH:      handler.NewDeviceHandler(sessionStore, hub, logger.With("component", "device")),
		healthLogH:   handler.NewHealthLogHandler(healthLogStore, logger.With("component", "health")),
		appointmentH: handler.NewAppointmentHandler(appointmentStore, hub, logger.With("component", "appointment")),
		messageH:     handler.NewMessageHandler(messageStore, hub, pushSched, logger.With("component", "message")),
		contentH:     handler.NewContentHandler(contentStore, logger.With("component", "content")),
		pushH:        pushH,
		adminH: handler.NewAdminHandler(adminStore, coupleStore, sessionStore, contentStore, backupStore,
			backupMgr, emailClient, cfg.JWTSecret, logger.With("component", "admin")),

		sessionStore: sessionStore,
		coupleStore:  coupleStore,
		adminStore:   adminStore,

		monitor:       monitor,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		jwtSecret:     cfg.JWTSecret,
		logger:        logger,
	}
}

// EnsureOwner seeds the owner account on a fresh deployment. Without it
// no admin exists to mint invites, so the console would be unreachable.
// A no-op when email is empty or any admin row already exists.
func (s *Server) EnsureOwner(email, password string) error {
	if email == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("owner password is required when owner email is set")
	}

	count, err := s.adminStore.Count()
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash owner password: %w", err)
	}
	admin, err := s.adminStore.Create(email, "Owner", string(hash), model.RoleOwner, nil)
	if err != nil {
		return fmt.Errorf("create owner: %w", err)
	}
	s.logger.Info("seeded owner account", "email", admin.Email)
	return nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, nil when VAPID
// keys are not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/register", s.rateLimited(s.authH.Register, 5))
	outerMux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login, 10))
	outerMux.HandleFunc("POST /api/pin", s.rateLimited(s.authH.SetPIN, 10))
	outerMux.HandleFunc("GET /api/content", s.contentH.List)
	outerMux.HandleFunc("GET /api/content/{slug}", s.contentH.Get)

	// Admin console
	outerMux.HandleFunc("POST /api/admin/login", s.rateLimited(s.adminH.Login, 10))
	outerMux.HandleFunc("POST /api/admin/accept-invite", s.rateLimited(s.adminH.AcceptInvite, 10))

	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)
	adminAuth := middleware.RequireAdmin(s.jwtSecret, s.adminStore)
	outerMux.Handle("/api/admin/", adminAuth(adminMux))

	// Couple API
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	authMiddleware := middleware.RequireAuth(s.sessionStore, s.coupleStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	watch := func(key ws.SessionKey, onInvalidated func()) func() {
		return s.monitor.Watch(key, onInvalidated).Stop
	}
	outerMux.Handle("GET /ws", authMiddleware(ws.HandleWebSocket(s.hub, watch)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc, limit int) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	return middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Device sessions
	mux.HandleFunc("GET /api/devices", s.deviceH.List)
	mux.HandleFunc("POST /api/devices/{id}/logout", s.deviceH.Logout)

	// Health logging
	mux.HandleFunc("PUT /api/health/steps", s.healthLogH.UpsertSteps)
	mux.HandleFunc("GET /api/health/steps", s.healthLogH.ListSteps)
	mux.HandleFunc("PUT /api/health/weight", s.healthLogH.UpsertWeight)
	mux.HandleFunc("GET /api/health/weight", s.healthLogH.ListWeights)
	mux.HandleFunc("POST /api/health/exercise", s.healthLogH.AddExercise)
	mux.HandleFunc("GET /api/health/exercise", s.healthLogH.ListExercises)
	mux.HandleFunc("DELETE /api/health/exercise/{id}", s.healthLogH.DeleteExercise)
	mux.HandleFunc("POST /api/health/food", s.healthLogH.AddFood)
	mux.HandleFunc("GET /api/health/food", s.healthLogH.ListFoods)
	mux.HandleFunc("DELETE /api/health/food/{id}", s.healthLogH.DeleteFood)
	mux.HandleFunc("GET /api/health/summary", s.healthLogH.Summary)

	// Appointments
	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("GET /api/appointments/{id}", s.appointmentH.Get)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.appointmentH.Delete)

	// Messaging
	mux.HandleFunc("POST /api/messages", s.messageH.Send)
	mux.HandleFunc("GET /api/messages", s.messageH.List)
	mux.HandleFunc("POST /api/messages/read", s.messageH.MarkRead)
	mux.HandleFunc("GET /api/messages/unread", s.messageH.UnreadCount)

	// Push
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	// Account management is restricted to superadmins and owners.
	manageAdmins := middleware.RequireRole(model.RoleSuperAdmin, model.RoleOwner)

	mux.HandleFunc("GET /api/admin/admins", s.adminH.List)
	mux.Handle("POST /api/admin/admins", manageAdmins(http.HandlerFunc(s.adminH.Create)))
	mux.Handle("PUT /api/admin/admins/{id}/role", manageAdmins(http.HandlerFunc(s.adminH.UpdateRole)))
	mux.Handle("PUT /api/admin/admins/{id}/active", manageAdmins(http.HandlerFunc(s.adminH.SetActive)))

	mux.HandleFunc("GET /api/admin/couples", s.adminH.ListCouples)
	mux.HandleFunc("GET /api/admin/couples/{id}", s.adminH.GetCouple)

	mux.HandleFunc("PUT /api/admin/content/{slug}", s.adminH.UpsertContent)

	mux.HandleFunc("POST /api/admin/backups/run", s.adminH.RunBackup)
	mux.HandleFunc("GET /api/admin/backups", s.adminH.ListBackups)
	mux.HandleFunc("GET /api/admin/backups/{id}/download", s.adminH.DownloadBackup)
}
