// internal/domain/models/domain.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain is the top-level multi-tenancy unit (a team).
//
// NOTE:
//   - Groups and members are not embedded on Domain.
//     They live in the domain_groups and domain_members collections,
//     keyed by domain_id, so concurrent edits never clobber each other.
//   - NameCI is the folded name used for the uniqueness check.
type Domain struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Owner       string             `bson:"owner" json:"owner"`
	Admins      []string           `bson:"admins" json:"admins"`
	Users       []string           `bson:"users" json:"users"`

	// Status mirrors the billing subscription status ("trialing",
	// "active", "canceled", ...). Empty until a subscription exists.
	Status string `bson:"status,omitempty" json:"status,omitempty"`

	// SubscriptionInfo is the display-safe summary of the domain's
	// billing subscription, kept in sync by every billing write path.
	SubscriptionInfo *SubscriptionInfo `bson:"subscription_info,omitempty" json:"subscription_info,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasUser reports whether uid appears in the domain's users array.
func (d *Domain) HasUser(uid string) bool {
	for _, u := range d.Users {
		if u == uid {
			return true
		}
	}
	return false
}
