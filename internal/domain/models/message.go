// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is an in-app message delivered to a domain user. Provisioning
// writes one welcome message for the owner; teardown removes the lot.
type Message struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	DomainID primitive.ObjectID `bson:"domain_id" json:"domain_id"`
	UID      string             `bson:"uid" json:"uid"`
	From     string             `bson:"from" json:"from"`
	To       []string           `bson:"to" json:"to"`
	Subject  string             `bson:"subject" json:"subject"`
	Body     string             `bson:"body" json:"body"`
	Status   string             `bson:"status" json:"status"`
	Read     bool               `bson:"read" json:"read"`

	Created time.Time `bson:"created" json:"created"`
	Author  string    `bson:"author" json:"author"`
}
