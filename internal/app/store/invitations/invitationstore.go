// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("invitation not found")

	// ErrNotPending is returned when accepting an invitation that was
	// already accepted. The accept path uses a compare-and-set on
	// status, so a retried accept fails here instead of duplicating
	// the membership.
	ErrNotPending = errors.New("invitation is not pending")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("member_invites")}
}

// Create persists a pending invitation.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	if inv.Created.IsZero() {
		inv.Created = time.Now().UTC()
	}
	inv.Status = models.InviteStatusPending
	inv.UID = nil
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// Get fetches one invitation by id.
func (s *Store) Get(ctx context.Context, id string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return models.Invitation{}, ErrNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// Accept flips a pending invitation to accepted and records the
// accepting uid. The status filter makes the flip atomic: only one
// accept can ever succeed for a given invitation.
func (s *Store) Accept(ctx context.Context, id, uid string) (models.Invitation, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InviteStatusPending},
		bson.M{"$set": bson.M{"status": models.InviteStatusAccepted, "uid": uid}})
	if err != nil {
		return models.Invitation{}, err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err == mongo.ErrNoDocuments {
			return models.Invitation{}, ErrNotFound
		}
		return models.Invitation{}, ErrNotPending
	}
	return s.Get(ctx, id)
}

// DeleteAllForDomain removes the domain's invitations (teardown).
func (s *Store) DeleteAllForDomain(ctx context.Context, domainID string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"domain": domainID})
	return err
}
