// internal/app/store/groups/groupstore.go
package groupstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound       = errors.New("group not found")
	ErrDuplicateGroup = errors.New("a group with this id already exists")

	// ErrVersionConflict means the document changed between read and
	// write. Callers re-read and retry or surface a conflict.
	ErrVersionConflict = errors.New("group was modified concurrently")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domain_groups")}
}

func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// Create inserts a group document. Callers check reserved names first;
// the store enforces per-domain uniqueness of the group id and folded
// name through the collection's unique indexes.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.NameCI = text.Fold(g.Name)
	g.Version = 1
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroup
		}
		return models.Group{}, err
	}
	return g, nil
}

// ListForDomain returns every group in the domain, built-ins first.
func (s *Store) ListForDomain(ctx context.Context, domainID primitive.ObjectID) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "builtin", Value: -1}, {Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"domain_id": domainID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one group scoped to its domain.
func (s *Store) Get(ctx context.Context, domainID primitive.ObjectID, groupID string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "domain_id": domainID}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Rename sets a new name on the group. The version filter makes this a
// compare-and-swap: a concurrent write since the caller's read fails the
// update instead of silently clobbering it.
func (s *Store) Rename(ctx context.Context, domainID primitive.ObjectID, groupID, newName string, version int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "domain_id": domainID, "version": version},
		bson.M{
			"$set": bson.M{
				"name":       newName,
				"name_ci":    text.Fold(newName),
				"updated_at": time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing group from a stale version.
		if err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "domain_id": domainID}).Err(); err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// AddMember adds uid to the group's member list.
func (s *Store) AddMember(ctx context.Context, domainID primitive.ObjectID, groupID, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "domain_id": domainID},
		bson.M{
			"$addToSet": bson.M{"members": uid},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
			"$inc":      bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember removes uid from one group's member list.
func (s *Store) RemoveMember(ctx context.Context, domainID primitive.ObjectID, groupID, uid string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "domain_id": domainID},
		bson.M{
			"$pull": bson.M{"members": uid},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
			"$inc":  bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMemberFromAll removes uid from every group in the domain.
func (s *Store) RemoveMemberFromAll(ctx context.Context, domainID primitive.ObjectID, uid string) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"domain_id": domainID, "members": uid},
		bson.M{
			"$pull": bson.M{"members": uid},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
			"$inc":  bson.M{"version": 1},
		})
	return err
}

// Delete removes the group document. The caller strips the group id from
// member records separately.
func (s *Store) Delete(ctx context.Context, domainID primitive.ObjectID, groupID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "domain_id": domainID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForDomain removes every group in the domain (teardown).
func (s *Store) DeleteAllForDomain(ctx context.Context, domainID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"domain_id": domainID})
	return err
}
