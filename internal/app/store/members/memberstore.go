// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	ErrNotFound        = errors.New("member not found")
	ErrDuplicateMember = errors.New("member already exists")
	ErrVersionConflict = errors.New("member was modified concurrently")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domain_members")}
}

func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// Add inserts a member record.
func (s *Store) Add(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.MemberOf == nil {
		m.MemberOf = []string{}
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// ListForDomain returns every member of the domain, oldest first.
func (s *Store) ListForDomain(ctx context.Context, domainID primitive.ObjectID) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"domain_id": domainID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one member scoped to its domain.
func (s *Store) Get(ctx context.Context, domainID primitive.ObjectID, memberID string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"_id": memberID, "domain_id": domainID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// GetByUID fetches the member record for an identity within a domain.
func (s *Store) GetByUID(ctx context.Context, domainID primitive.ObjectID, uid string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"domain_id": domainID, "uid": uid}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// Patch holds the updatable member fields. Nil means "leave unchanged".
type Patch struct {
	MemberOf *[]string
	Status   *string
}

// Update patches the member's groups and status with a compare-and-swap
// on version.
func (s *Store) Update(ctx context.Context, domainID primitive.ObjectID, memberID string, p Patch, version int64) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.MemberOf != nil {
		set["member_of"] = *p.MemberOf
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": memberID, "domain_id": domainID, "version": version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": memberID, "domain_id": domainID}).Err(); err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// PullGroup strips a deleted group's id from every member of the domain.
func (s *Store) PullGroup(ctx context.Context, domainID primitive.ObjectID, groupID string) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"domain_id": domainID},
		bson.M{
			"$pull": bson.M{"member_of": groupID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
			"$inc":  bson.M{"version": 1},
		})
	return err
}

// Delete removes one member record.
func (s *Store) Delete(ctx context.Context, domainID primitive.ObjectID, memberID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": memberID, "domain_id": domainID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllExcept removes every member of the domain except the one with
// the given uid. Used when a trialing subscription is cancelled: only the
// owner's membership survives. Returns the removed members so the caller
// can clean up their claims.
func (s *Store) DeleteAllExcept(ctx context.Context, domainID primitive.ObjectID, keepUID string) ([]models.Member, error) {
	filter := bson.M{"domain_id": domainID, "uid": bson.M{"$ne": keepUID}}

	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var removed []models.Member
	if err := cur.All(ctx, &removed); err != nil {
		return nil, err
	}

	if _, err := s.c.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteAllForDomain removes every member of the domain (teardown).
func (s *Store) DeleteAllForDomain(ctx context.Context, domainID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"domain_id": domainID})
	return err
}
