package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var indexes = map[string][]mongo.IndexModel{
	UsersCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	ItinerariesCollection: {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "destination.city", Value: 1}, {Key: "destination.country", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	},
	BookingsCollection: {
		{Keys: bson.D{{Key: "booking_reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	ReviewsCollection: {
		{Keys: bson.D{{Key: "itinerary.itinerary_id", Value: 1}, {Key: "moderation.status", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "review_type", Value: 1}}},
	},
}

// EnsureIndexes creates the indexes the stores rely on, including the unique
// constraints on user email and booking reference.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
