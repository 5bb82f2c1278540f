package store

import (
	"testing"

	"github.com/cradlehq/cradle/internal/model"
)

func TestAdminCreateAndGet(t *testing.T) {
	as := NewAdminStore(newTestDB(t))

	a, err := as.Create("ops@cradle.app", "Ops", "hashed-pw", model.RoleAdmin, []string{"content"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if !a.Active {
		t.Error("new admin should start active")
	}
	if len(a.Permissions) != 1 || a.Permissions[0] != "content" {
		t.Errorf("permissions = %v", a.Permissions)
	}

	got, err := as.GetByEmail("ops@cradle.app")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("got %+v, want admin %d", got, a.ID)
	}

	missing, err := as.GetByEmail("nobody@cradle.app")
	if err != nil {
		t.Fatalf("get unknown email: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown email, got %+v", missing)
	}
}

func TestAdminCreateNilPermissions(t *testing.T) {
	as := NewAdminStore(newTestDB(t))

	a, err := as.Create("ops@cradle.app", "Ops", "hashed-pw", model.RoleAdmin, nil)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if a.Permissions == nil {
		t.Error("permissions should decode to an empty slice, not nil")
	}
	if len(a.Permissions) != 0 {
		t.Errorf("permissions = %v, want empty", a.Permissions)
	}
}

func TestAdminUpdateRole(t *testing.T) {
	as := NewAdminStore(newTestDB(t))

	a, err := as.Create("ops@cradle.app", "Ops", "hashed-pw", model.RoleAdmin, nil)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	updated, err := as.UpdateRole(a.ID, model.RoleSuperAdmin, []string{"backups"})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != model.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", updated.Role, model.RoleSuperAdmin)
	}
	if len(updated.Permissions) != 1 || updated.Permissions[0] != "backups" {
		t.Errorf("permissions = %v", updated.Permissions)
	}
}

func TestAdminSetActive(t *testing.T) {
	as := NewAdminStore(newTestDB(t))

	a, err := as.Create("ops@cradle.app", "Ops", "hashed-pw", model.RoleAdmin, nil)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if err := as.SetActive(a.ID, false); err != nil {
		t.Fatalf("pause admin: %v", err)
	}
	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if got.Active {
		t.Error("admin should be paused")
	}

	if err := as.SetActive(a.ID, true); err != nil {
		t.Fatalf("resume admin: %v", err)
	}
	got, err = as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if !got.Active {
		t.Error("admin should be active again")
	}
}

func TestAdminUpdatePassword(t *testing.T) {
	as := NewAdminStore(newTestDB(t))

	a, err := as.Create("ops@cradle.app", "Ops", "*", model.RoleAdmin, nil)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if err := as.UpdatePassword(a.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("password hash = %q, want %q", got.PasswordHash, "new-hash")
	}
}

func TestAdminHasPermission(t *testing.T) {
	a := &model.Admin{Role: model.RoleAdmin, Permissions: []string{"content"}}
	if !a.HasPermission("content") {
		t.Error("granted permission should pass")
	}
	if a.HasPermission("backups") {
		t.Error("ungranted permission should fail")
	}

	super := &model.Admin{Role: model.RoleSuperAdmin}
	if !super.HasPermission("anything") {
		t.Error("superadmin holds every permission")
	}
}
