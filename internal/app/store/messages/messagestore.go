// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"time"

	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domain_messages")}
}

func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// Create inserts a message.
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Created.IsZero() {
		m.Created = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// ListForUser returns a user's messages within a domain.
func (s *Store) ListForUser(ctx context.Context, domainID primitive.ObjectID, uid string) ([]models.Message, error) {
	cur, err := s.c.Find(ctx, bson.M{"domain_id": domainID, "uid": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllForDomain removes every message in the domain (teardown).
func (s *Store) DeleteAllForDomain(ctx context.Context, domainID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"domain_id": domainID})
	return err
}
