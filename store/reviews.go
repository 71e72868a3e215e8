package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/travel-planner-go/models"
)

type MongoReviewStore struct {
	col *mongo.Collection
}

func NewReviewStore(db *mongo.Database) *MongoReviewStore {
	return &MongoReviewStore{col: db.Collection(ReviewsCollection)}
}

func (s *MongoReviewStore) Create(ctx context.Context, r *models.Review) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	return insert(ctx, s.col, r)
}

func (s *MongoReviewStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	return findOne[models.Review](ctx, s.col, bson.M{"_id": id})
}

func (s *MongoReviewStore) Save(ctx context.Context, r *models.Review) error {
	return replace(ctx, s.col, r.ID, r)
}

func (s *MongoReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, s.col, id)
}

func (s *MongoReviewStore) List(ctx context.Context, q ListQuery) ([]models.Review, int64, error) {
	return list[models.Review](ctx, s.col, q)
}

func (s *MongoReviewStore) Exists(ctx context.Context, r *models.Review) (bool, error) {
	n, err := s.col.CountDocuments(ctx, ReviewTarget(r))
	if err != nil {
		return false, fmt.Errorf("count reviews: %w", err)
	}
	return n > 0, nil
}
