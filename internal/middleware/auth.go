package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/store"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// RequireAuth validates the session bearer token and populates AuthContext.
// Sessions that were invalidated by a login on another device fail here,
// which is how a lingering client discovers it was logged out.
func RequireAuth(sessionStore *store.SessionStore, coupleStore *store.CoupleStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil {
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}
			if sess == nil {
				unauthorized(w)
				return
			}

			profile, err := coupleStore.GetProfile(sess.CoupleID, sess.Gender)
			if err != nil || profile == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				CoupleID:  sess.CoupleID,
				ProfileID: profile.ID,
				Gender:    sess.Gender,
				DeviceID:  sess.DeviceID,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin validates the admin JWT and checks the account is still
// active. Paused admins keep a valid token but lose access immediately.
func RequireAdmin(secret string, adminStore *store.AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := auth.ParseAdminToken(secret, token)
			if err != nil {
				unauthorized(w)
				return
			}
			// Invite tokens only set a password; they never open the console.
			if claims.TokenUse != auth.TokenUseAccess {
				unauthorized(w)
				return
			}

			admin, err := adminStore.GetByID(claims.AdminID)
			if err != nil {
				http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
				return
			}
			if admin == nil || !admin.Active {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := auth.WithAdmin(r.Context(), auth.AdminContext{
				AdminID: admin.ID,
				Email:   admin.Email,
				Role:    admin.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a handler on a minimum admin role. Superadmin and
// owner pass every gate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := auth.AdminFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if ac.Role != model.RoleSuperAdmin && ac.Role != model.RoleOwner && !slices.Contains(roles, ac.Role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
