// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member lifecycle statuses.
const (
	MemberStatusPending = "Pending"
	MemberStatusActive  = "Active"
)

// Member associates an identity with a domain and a set of groups.
//
// UID is nil while the member is a pending invitee; it is populated when
// the invitation is accepted. MemberOf holds group ids.
type Member struct {
	ID       string             `bson:"_id" json:"id"`
	DomainID primitive.ObjectID `bson:"domain_id" json:"domain_id"`
	UID      *string            `bson:"uid" json:"uid"`
	Email    string             `bson:"email" json:"email"`
	Status   string             `bson:"status" json:"status"`
	MemberOf []string           `bson:"member_of" json:"memberOf"`
	Version  int64              `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// InGroup reports whether the member belongs to the given group id.
func (m *Member) InGroup(groupID string) bool {
	for _, g := range m.MemberOf {
		if g == groupID {
			return true
		}
	}
	return false
}
