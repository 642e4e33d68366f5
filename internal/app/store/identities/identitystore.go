// internal/app/store/identities/identitystore.go

// Package identitystore owns the identities collection: one versioned
// record per identity-provider user holding its primary domain pointer
// and per-domain role claims. Membership flows write it; the auth
// middleware reads it on every request.
package identitystore

import (
	"context"
	"errors"
	"time"

	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("identity not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// FetchIdentity implements auth.IdentityFetcher.
func (s *Store) FetchIdentity(ctx context.Context, uid string) (*models.Identity, error) {
	ident, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

// Get fetches one identity record.
func (s *Store) Get(ctx context.Context, uid string) (models.Identity, error) {
	var ident models.Identity
	err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&ident)
	if err == mongo.ErrNoDocuments {
		return models.Identity{}, ErrNotFound
	}
	if err != nil {
		return models.Identity{}, err
	}
	return ident, nil
}

// Upsert creates or refreshes the identity record for uid.
func (s *Store) Upsert(ctx context.Context, uid, email string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set":         bson.M{"email": email, "updated_at": now},
			"$setOnInsert": bson.M{"domain_ids": bson.M{}, "version": int64(0), "created_at": now},
		},
		options.Update().SetUpsert(true))
	return err
}

// SetPrimaryDomain points the identity at its primary domain.
func (s *Store) SetPrimaryDomain(ctx context.Context, uid, domainID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set": bson.M{"domain_id": domainID, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDomainRoles replaces the identity's role set for one domain,
// preserving claims on every other domain. When the identity has no
// primary domain yet, this domain becomes it.
func (s *Store) SetDomainRoles(ctx context.Context, uid, domainID string, roles []string) error {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set": bson.M{
				"domain_ids." + domainID: models.DomainClaim{Roles: roles},
				"updated_at":             now,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	// First membership becomes the primary domain.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": uid, "domain_id": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"domain_id": domainID, "updated_at": now}})
	return err
}

// RemoveDomain deletes the identity's claim on a domain. The primary
// domain pointer is left alone; a stale pointer only affects which
// domain a client opens first.
func (s *Store) RemoveDomain(ctx context.Context, uid, domainID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$unset": bson.M{"domain_ids." + domainID: ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
			"$inc":   bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the identity record entirely.
func (s *Store) Delete(ctx context.Context, uid string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": uid})
	return err
}
