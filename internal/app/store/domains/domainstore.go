// internal/app/store/domains/domainstore.go
package domainstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound        = errors.New("domain not found")
	ErrDuplicateDomain = errors.New("a domain with this name already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domains")}
}

// Collection exposes the underlying collection for transactional callers
// (provisioning and teardown write several collections in one session).
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// Create inserts a new domain document. The name must be unique
// case-insensitively (unique index on name_ci).
func (s *Store) Create(ctx context.Context, d models.Domain) (models.Domain, error) {
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Domain{}, ErrDuplicateDomain
		}
		return models.Domain{}, err
	}
	return d, nil
}

// GetByIDForUser fetches one domain, requiring that uid appears in its
// users array. A domain the caller does not belong to is indistinguishable
// from one that does not exist.
func (s *Store) GetByIDForUser(ctx context.Context, id primitive.ObjectID, uid string) (models.Domain, error) {
	var d models.Domain
	err := s.c.FindOne(ctx, bson.M{"_id": id, "users": uid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return models.Domain{}, ErrNotFound
	}
	if err != nil {
		return models.Domain{}, err
	}
	return d, nil
}

// GetByID fetches one domain without a membership filter. Internal
// callers only (webhook, lifecycle); the HTTP surface always goes through
// GetByIDForUser.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error) {
	var d models.Domain
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return models.Domain{}, ErrNotFound
	}
	if err != nil {
		return models.Domain{}, err
	}
	return d, nil
}

// ListForUser returns every domain whose users array contains uid.
func (s *Store) ListForUser(ctx context.Context, uid string) ([]models.Domain, error) {
	cur, err := s.c.Find(ctx, bson.M{"users": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Domain
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOwnedBy returns every domain owned by uid.
func (s *Store) ListOwnedBy(ctx context.Context, uid string) ([]models.Domain, error) {
	cur, err := s.c.Find(ctx, bson.M{"owner": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Domain
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDisplayName changes the domain's display name.
func (s *Store) UpdateDisplayName(ctx context.Context, id primitive.ObjectID, displayName string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"display_name": displayName,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddUser adds uid to the domain's users array. $addToSet keeps the
// operation idempotent under concurrent invitation accepts.
func (s *Store) AddUser(ctx context.Context, id primitive.ObjectID, uid string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"users": uid},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveUser removes uid from the domain's users and admins arrays.
func (s *Store) RemoveUser(ctx context.Context, id primitive.ObjectID, uid string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"users": uid, "admins": uid},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus records the billing subscription status on the domain.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubscriptionInfo stores the visible subscription summary and mirrors
// its status onto the domain.
func (s *Store) SetSubscriptionInfo(ctx context.Context, id primitive.ObjectID, info models.SubscriptionInfo) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"subscription_info": info,
		"status":            info.Status,
		"updated_at":        time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByNameCI checks whether a domain with the given case-insensitive
// name already exists.
func (s *Store) ExistsByNameCI(ctx context.Context, name string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a domain document by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
