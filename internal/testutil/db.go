package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SetupTestDB connects to a local MongoDB instance and returns a database
// scoped to the calling test. The database is dropped and the client
// disconnected when the test finishes.
//
// Set TEAMBASE_TEST_MONGO_URI to point at a non-default instance. Tests
// that need a database skip when no instance is reachable, so the pure
// unit tests still run on machines without MongoDB.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEAMBASE_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongodb not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongodb not reachable at %s: %v", uri, err)
	}

	name := fmt.Sprintf("teambase_test_%d", time.Now().UnixNano())
	db := client.Database(name)
	ensureTestIndexes(t, db)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// ensureTestIndexes creates the unique indexes the stores rely on for
// duplicate detection. Kept in sync with the bootstrap schema.
func ensureTestIndexes(t *testing.T, db *mongo.Database) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		"domains": {
			{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"domain_groups": {
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "group_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"domain_members": {
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "uid", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "uid", Value: bson.D{{Key: "$type", Value: "string"}}}})},
		},
		"billing_customers": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			t.Fatalf("failed to create test indexes on %s: %v", coll, err)
		}
	}
}

// TestContext returns a context with a generous test deadline.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
