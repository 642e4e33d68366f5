// internal/domain/models/invitation.go
package models

import "time"

// Invitation statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
)

// Invitation is a pending, emailed offer of domain membership. It is an
// independent top-level record; nothing in the domain references it until
// the invitee accepts.
type Invitation struct {
	ID      string  `bson:"_id" json:"id"`
	Name    string  `bson:"name" json:"name"`
	Invitee string  `bson:"invitee" json:"invitee"`
	Inviter string  `bson:"inviter" json:"inviter"`
	UID     *string `bson:"uid" json:"uid"`
	Status  string  `bson:"status" json:"status"`
	Domain  string  `bson:"domain" json:"domain"`

	Created   time.Time `bson:"created" json:"created"`
	CreatedBy string    `bson:"created_by" json:"createdBy"`
}
