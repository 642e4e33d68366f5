package models_test

import (
	"testing"

	"github.com/teambase/teambase/internal/domain/models"
)

func TestIsReservedGroupName(t *testing.T) {
	tests := []struct {
		name     string
		reserved bool
	}{
		{"ADMINISTRATORS", true},
		{"administrators", true},
		{"Administrators", true},
		{"BOARD_USERS", true},
		{"Users", true},
		{"users", true},
		{"BOARD_CREATORS", true},
		{"Creators", true},
		{"Engineering", false},
		{"Admins", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := models.IsReservedGroupName(tt.name); got != tt.reserved {
			t.Errorf("IsReservedGroupName(%q) = %v, want %v", tt.name, got, tt.reserved)
		}
	}
}

func TestBuiltinGroupName(t *testing.T) {
	tests := []struct {
		roleID string
		want   string
	}{
		{models.RoleAdministrators, "Administrators"},
		{models.RoleBoardUsers, "Users"},
		{models.RoleBoardCreators, "Creators"},
		{"custom-group", "custom-group"},
	}

	for _, tt := range tests {
		if got := models.BuiltinGroupName(tt.roleID); got != tt.want {
			t.Errorf("BuiltinGroupName(%q) = %q, want %q", tt.roleID, got, tt.want)
		}
	}
}

func TestBuiltinRoles(t *testing.T) {
	roles := models.BuiltinRoles()
	if len(roles) != 3 {
		t.Fatalf("expected 3 built-in roles, got %d", len(roles))
	}
	if roles[0] != models.RoleAdministrators {
		t.Errorf("expected Administrators first, got %q", roles[0])
	}
}

func TestIdentity_RolesFor(t *testing.T) {
	ident := &models.Identity{
		UID: "uid-1",
		DomainIDs: map[string]models.DomainClaim{
			"dom-1": {Roles: []string{models.RoleBoardUsers}},
		},
	}

	if got := ident.RolesFor("dom-1"); len(got) != 1 {
		t.Errorf("RolesFor(dom-1) = %v, want 1 role", got)
	}
	if got := ident.RolesFor("dom-2"); got != nil {
		t.Errorf("RolesFor(dom-2) = %v, want nil", got)
	}

	var nilIdent *models.Identity
	if got := nilIdent.RolesFor("dom-1"); got != nil {
		t.Errorf("nil identity RolesFor = %v, want nil", got)
	}
}
