// internal/app/store/subscriptions/subscriptionstore.go
package subscriptionstore

import (
	"context"
	"errors"
	"time"

	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c         *mongo.Collection
	customers *mongo.Collection
}

var (
	ErrNotFound         = errors.New("subscription not found")
	ErrCustomerNotFound = errors.New("billing customer not found")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("subscriptions"),
		customers: db.Collection("billing_customers"),
	}
}

// Save upserts the domain's subscription record (raw + visible).
func (s *Store) Save(ctx context.Context, rec models.SubscriptionRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.c.ReplaceOne(ctx,
		bson.M{"_id": rec.DomainID},
		rec,
		options.Replace().SetUpsert(true))
	return err
}

// Get fetches the domain's subscription record.
func (s *Store) Get(ctx context.Context, domainID primitive.ObjectID) (models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.c.FindOne(ctx, bson.M{"_id": domainID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.SubscriptionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.SubscriptionRecord{}, err
	}
	return rec, nil
}

// GetBySubID finds the record holding a provider subscription id.
// Webhook deliveries identify subscriptions this way.
func (s *Store) GetBySubID(ctx context.Context, subID string) (models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.c.FindOne(ctx, bson.M{"sub_id": subID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.SubscriptionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.SubscriptionRecord{}, err
	}
	return rec, nil
}

// Delete removes the domain's subscription record (teardown).
func (s *Store) Delete(ctx context.Context, domainID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": domainID})
	return err
}

// SetCustomer maps an identity uid onto its billing customer id.
func (s *Store) SetCustomer(ctx context.Context, uid, customerID string) error {
	_, err := s.customers.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set":         bson.M{"customer_id": customerID},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true))
	return err
}

// GetCustomer returns the billing customer id for uid.
func (s *Store) GetCustomer(ctx context.Context, uid string) (string, error) {
	var doc models.BillingCustomer
	err := s.customers.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", ErrCustomerNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.CustomerID, nil
}

// GetUIDByCustomer resolves a billing customer id back to the owning
// uid. The webhook uses this to find the affected domain.
func (s *Store) GetUIDByCustomer(ctx context.Context, customerID string) (string, error) {
	var doc models.BillingCustomer
	err := s.customers.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", ErrCustomerNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.UID, nil
}

// DeleteCustomer removes the uid → customer mapping (teardown).
func (s *Store) DeleteCustomer(ctx context.Context, uid string) error {
	_, err := s.customers.DeleteOne(ctx, bson.M{"_id": uid})
	return err
}
