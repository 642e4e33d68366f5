// internal/app/policy/domainpolicy/domainpolicy.go
package domainpolicy

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/teambase/teambase/internal/app/system/authz"
	"github.com/teambase/teambase/internal/domain/models"
)

// IsAdminOnRecord reports whether uid is an active member of the domain's
// Administrators group according to the authoritative domain_members
// collection. Claims on the request identity can lag a revocation; calls
// that grant durable access (sending invitations, changing membership)
// re-check here.
func IsAdminOnRecord(ctx context.Context, db *mongo.Database, domainID primitive.ObjectID, uid string) (bool, error) {
	c := db.Collection("domain_members")
	n, err := c.CountDocuments(ctx, bson.M{
		"domain_id": domainID,
		"uid":       uid,
		"status":    models.MemberStatusActive,
		"member_of": models.RoleAdministrators,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanUpdateDomain reports whether the identity may change domain settings:
// the owner always can; otherwise the caller needs the Administrators role
// for this domain. Returns an error only on database failure, so callers
// can distinguish "not authorized" (false, nil) from a lookup error.
func CanUpdateDomain(ctx context.Context, db *mongo.Database, ident *models.Identity, dom models.Domain) (bool, error) {
	if ident == nil {
		return false, nil
	}
	if authz.IsOwner(ident, dom) {
		return true, nil
	}
	if !authz.IsAdministrator(ident, dom.ID.Hex()) {
		return false, nil
	}
	return IsAdminOnRecord(ctx, db, dom.ID, ident.UID)
}

// CanSendInvites requires the Administrators role re-checked against the
// member records, regardless of what the identity claims carry.
func CanSendInvites(ctx context.Context, db *mongo.Database, ident *models.Identity, dom models.Domain) (bool, error) {
	if ident == nil {
		return false, nil
	}
	if authz.IsOwner(ident, dom) {
		return true, nil
	}
	return IsAdminOnRecord(ctx, db, dom.ID, ident.UID)
}
