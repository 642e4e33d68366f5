// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named role bucket within a domain.
//
// The id is a stable string scoped to the domain: built-in groups use
// their role id (e.g. ADMINISTRATORS) so claims and membership can
// reference them without a lookup; custom groups get a generated uuid.
// It is unique per domain, not globally, so it lives in group_id rather
// than the document _id.
//
// Version increments on every write and guards renames against
// concurrent modification (compare-and-swap on version).
type Group struct {
	ID       string             `bson:"group_id" json:"id"`
	DomainID primitive.ObjectID `bson:"domain_id" json:"domain_id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"`
	Builtin  bool               `bson:"builtin" json:"builtin"`
	Members  []string           `bson:"members" json:"members"`
	Version  int64              `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
