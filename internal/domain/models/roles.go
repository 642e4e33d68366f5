// internal/domain/models/roles.go
package models

import "strings"

// Built-in group ids. These double as role markers inside identity claims:
// an identity holds a role for a domain when the group id appears in
// DomainIDs[domainID].Roles.
const (
	RoleAdministrators = "ADMINISTRATORS"
	RoleBoardUsers     = "BOARD_USERS"
	RoleBoardCreators  = "BOARD_CREATORS"
)

// Display names for the built-in groups created during provisioning.
const (
	GroupNameAdministrators = "Administrators"
	GroupNameUsers          = "Users"
	GroupNameCreators       = "Creators"
)

// BuiltinRoles returns the three built-in group ids in provisioning order.
func BuiltinRoles() []string {
	return []string{RoleAdministrators, RoleBoardUsers, RoleBoardCreators}
}

// BuiltinGroupName returns the display name for a built-in group id, or
// the id itself if it is not built-in.
func BuiltinGroupName(roleID string) string {
	switch roleID {
	case RoleAdministrators:
		return GroupNameAdministrators
	case RoleBoardUsers:
		return GroupNameUsers
	case RoleBoardCreators:
		return GroupNameCreators
	}
	return roleID
}

// reservedGroupNames covers both the built-in group ids and their display
// names. Custom groups may not collide with either, case-insensitively.
var reservedGroupNames = []string{
	RoleAdministrators,
	RoleBoardUsers,
	RoleBoardCreators,
	GroupNameAdministrators,
	GroupNameUsers,
	GroupNameCreators,
}

// IsReservedGroupName reports whether name matches a built-in group id or
// display name, ignoring case.
func IsReservedGroupName(name string) bool {
	for _, reserved := range reservedGroupNames {
		if strings.EqualFold(name, reserved) {
			return true
		}
	}
	return false
}
