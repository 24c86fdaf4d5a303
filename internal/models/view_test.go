package models

import "testing"

func TestResolveMode(t *testing.T) {
	member := &Identity{UserID: "u1", Roles: []Role{RoleMember}}

	tests := []struct {
		name    string
		viewer  *Identity
		history bool
		want    ViewMode
	}{
		{"anonymous", nil, false, ModeAnonymous},
		{"anonymous asking for history", nil, true, ModeAnonymous},
		{"blank user id", &Identity{UserID: "  "}, true, ModeAnonymous},
		{"member default", member, false, ModeUpcoming},
		{"member history", member, true, ModeHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveMode(tt.viewer, tt.history); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIdentityRoles(t *testing.T) {
	var anonymous *Identity
	if anonymous.IsAdmin() || anonymous.Authenticated() {
		t.Fatal("nil identity must be anonymous")
	}

	admin := &Identity{UserID: "a1", Roles: []Role{RoleMember, RoleAdmin}}
	if !admin.IsAdmin() {
		t.Fatal("expected admin")
	}
	member := &Identity{UserID: "m1", Roles: []Role{RoleMember}}
	if member.IsAdmin() {
		t.Fatal("member must not be admin")
	}
}
