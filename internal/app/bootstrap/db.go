// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used throughout the app.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on. All creations are
// idempotent; Mongo ignores an index that already exists.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	for coll, models := range map[string][]mongo.IndexModel{
		"domains": {
			{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "users", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		"domain_groups": {
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "group_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"domain_members": {
			{Keys: bson.D{{Key: "domain_id", Value: 1}}},
			// Unique per (domain, uid) once the member has joined; pending
			// members carry a null uid and stay outside the partial filter.
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "uid", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "uid", Value: bson.D{{Key: "$type", Value: "string"}}}})},
		},
		"member_invites": {
			{Keys: bson.D{{Key: "domain", Value: 1}}},
			{Keys: bson.D{{Key: "invitee", Value: 1}}},
		},
		"subscriptions": {
			{Keys: bson.D{{Key: "sub_id", Value: 1}}},
		},
		"billing_customers": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"domain_messages": {
			{Keys: bson.D{{Key: "domain_id", Value: 1}, {Key: "uid", Value: 1}}},
		},
	} {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", coll, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
