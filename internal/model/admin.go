package model

import "time"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
	RoleOwner      = "owner"
)

var AdminRoles = []string{RoleAdmin, RoleSuperAdmin, RoleOwner}

type Admin struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	Permissions  []string   `json:"permissions"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasPermission reports whether the admin holds the named permission.
// Superadmins and owners implicitly hold everything.
func (a *Admin) HasPermission(perm string) bool {
	if a.Role == RoleSuperAdmin || a.Role == RoleOwner {
		return true
	}
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
