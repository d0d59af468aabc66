package auth

import "testing"

func TestValidRole(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"admin", true},
		{"support", true},
		{"", false},
		{"Admin", false},
		{"superuser", false},
		{"guest", false},
	}
	for _, tt := range tests {
		if got := ValidRole(tt.in); got != tt.want {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("support")
	if err != nil {
		t.Fatalf("ParseRole(support): %v", err)
	}
	if role != RoleSupport {
		t.Errorf("ParseRole(support) = %q", role)
	}

	if _, err := ParseRole("root"); err == nil {
		t.Error("ParseRole(root) should fail")
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []Role
		want    bool
	}{
		{"admin in admin set", "admin", []Role{RoleAdmin}, true},
		{"support not in admin set", "support", []Role{RoleAdmin}, false},
		{"support in mixed set", "support", []Role{RoleAdmin, RoleSupport}, true},
		{"unknown role never matches", "root", []Role{RoleAdmin, RoleSupport}, false},
		{"empty role never matches", "", []Role{RoleAdmin}, false},
		{"empty allowed set", "admin", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRole(tt.role, tt.allowed); got != tt.want {
				t.Errorf("HasRole(%q, %v) = %v, want %v", tt.role, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	granted := []string{"users:write", "audit:read"}

	if !HasPermission(granted, PermissionUsersWrite) {
		t.Error("exact grant should satisfy users:write")
	}
	if !HasPermission(granted, PermissionAuditRead) {
		t.Error("exact grant should satisfy audit:read")
	}
	// Write implies read within the users resource.
	if !HasPermission(granted, PermissionUsersRead) {
		t.Error("users:write should imply users:read")
	}
	if HasPermission(granted, PermissionUsersDelete) {
		t.Error("users:delete was not granted")
	}
	if HasPermission(granted, PermissionReportsRead) {
		t.Error("reports:read was not granted")
	}
	if HasPermission(nil, PermissionUsersRead) {
		t.Error("empty grant set must deny")
	}
}

func TestDefaultRolePermissions(t *testing.T) {
	table := DefaultRolePermissions()

	adminPerms, ok := table[RoleAdmin]
	if !ok {
		t.Fatal("admin role missing from default table")
	}
	if len(adminPerms) != len(AllPermissions()) {
		t.Errorf("admin grants %d permissions, want all %d", len(adminPerms), len(AllPermissions()))
	}

	supportPerms := table[RoleSupport]
	for _, p := range supportPerms {
		if p == PermissionUsersWrite || p == PermissionUsersDelete {
			t.Errorf("support must not hold %s", p)
		}
	}

	for role, perms := range table {
		for _, p := range perms {
			if err := ValidatePermissionString(string(p)); err != nil {
				t.Errorf("role %s grants unrecognized permission %q", role, p)
			}
		}
	}
}
