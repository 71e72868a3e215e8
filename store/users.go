package store

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/travel-planner-go/models"
)

// Profile counters adjustable through IncrementStat.
const (
	UserStatTripsCompleted = "stats.trips_completed"
	UserStatReviewsCount   = "stats.reviews_count"
)

type MongoUserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(UsersCollection)}
}

func (s *MongoUserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	return insert(ctx, s.col, u)
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.col, bson.M{"_id": id})
}

// FindByEmail matches the normalized (lower-cased) address.
func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.col, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoUserStore) Save(ctx context.Context, u *models.User) error {
	return replace(ctx, s.col, u.ID, u)
}

func (s *MongoUserStore) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	return list[models.User](ctx, s.col, q)
}

func (s *MongoUserStore) IncrementStat(ctx context.Context, id primitive.ObjectID, stat string, delta int) error {
	switch stat {
	case UserStatTripsCompleted, UserStatReviewsCount:
	default:
		return fmt.Errorf("unknown user stat %q", stat)
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{stat: delta}})
	if err != nil {
		return fmt.Errorf("increment %s: %w", stat, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
