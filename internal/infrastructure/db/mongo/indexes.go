package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. It is
// idempotent and safe to run on every deploy.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// The unique email index is what turns a lost registration race into
	// EmailAlreadyUsed instead of a second account.
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	if _, err := db.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("email_occurred_at"),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("kind_occurred_at"),
		},
	}); err != nil {
		return fmt.Errorf("create auth_events indexes: %w", err)
	}

	return nil
}
