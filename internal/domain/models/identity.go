// internal/domain/models/identity.go
package models

import "time"

// DomainClaim is the role set an identity holds for one domain.
type DomainClaim struct {
	Roles []string `bson:"roles" json:"roles"`
}

// Identity is the versioned membership record for one identity-provider
// user. It is the authoritative copy of what the provider's custom claims
// cache: DomainID points at the primary domain, DomainIDs maps every
// domain the identity belongs to onto its roles.
//
// The bearer middleware reloads this record on every request, so role
// changes take effect immediately instead of waiting for a token refresh.
type Identity struct {
	UID      string `bson:"_id" json:"uid"`
	Email    string `bson:"email" json:"email"`
	DomainID string `bson:"domain_id,omitempty" json:"domainId,omitempty"`

	DomainIDs map[string]DomainClaim `bson:"domain_ids" json:"domainIds"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// RolesFor returns the identity's roles for a domain, or nil when the
// identity has no claim on it.
func (i *Identity) RolesFor(domainID string) []string {
	if i == nil || i.DomainIDs == nil {
		return nil
	}
	claim, ok := i.DomainIDs[domainID]
	if !ok {
		return nil
	}
	return claim.Roles
}
