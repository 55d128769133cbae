package migrations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureGreetingIndexes creates the indexes the greetings collection is read
// through. CreateMany is idempotent for identical index specs.
func EnsureGreetingIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_greetings_created"),
		},
		{
			Keys:    bson.D{{Key: "external_reference", Value: 1}},
			Options: options.Index().SetName("idx_greetings_external_reference").SetSparse(true),
		},
	}

	if _, err := db.Collection(collectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", collectionName, err)
	}
	return nil
}
