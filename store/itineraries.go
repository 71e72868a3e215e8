package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/travel-planner-go/models"
)

type MongoItineraryStore struct {
	col *mongo.Collection
}

func NewItineraryStore(db *mongo.Database) *MongoItineraryStore {
	return &MongoItineraryStore{col: db.Collection(ItinerariesCollection)}
}

func (s *MongoItineraryStore) Create(ctx context.Context, it *models.Itinerary) error {
	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	return insert(ctx, s.col, it)
}

func (s *MongoItineraryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Itinerary, error) {
	return findOne[models.Itinerary](ctx, s.col, bson.M{"_id": id})
}

func (s *MongoItineraryStore) Save(ctx context.Context, it *models.Itinerary) error {
	return replace(ctx, s.col, it.ID, it)
}

func (s *MongoItineraryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.col, id)
}

func (s *MongoItineraryStore) List(ctx context.Context, q ListQuery) ([]models.Itinerary, int64, error) {
	return list[models.Itinerary](ctx, s.col, q)
}

func (s *MongoItineraryStore) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stats.views": 1}}); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (s *MongoItineraryStore) SetRating(ctx context.Context, id primitive.ObjectID, r models.Rating) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"rating": r}})
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}
