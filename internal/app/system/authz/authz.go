// internal/app/system/authz/authz.go

// Package authz holds the pure authorization checks. Nothing in here
// performs I/O: every function operates on an identity already resolved
// by the auth middleware, and absent claims mean "no", never an error.
package authz

import (
	"github.com/teambase/teambase/internal/domain/models"
)

// IsAdministrator reports whether the identity holds the Administrators
// role for the given domain. It is nil-safe at every step of the claims
// path; any missing piece yields false.
func IsAdministrator(ident *models.Identity, domainID string) bool {
	return HasRole(ident, domainID, models.RoleAdministrators)
}

// HasRole reports whether the identity holds the given role (group id)
// for the given domain.
func HasRole(ident *models.Identity, domainID, role string) bool {
	for _, r := range ident.RolesFor(domainID) {
		if r == role {
			return true
		}
	}
	return false
}

// IsOwner reports whether the identity owns the domain. Billing
// operations use this stricter check: Administrators manage membership,
// only the owner touches money.
func IsOwner(ident *models.Identity, domain models.Domain) bool {
	if ident == nil {
		return false
	}
	return domain.Owner != "" && domain.Owner == ident.UID
}
