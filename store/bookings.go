package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/travel-planner-go/models"
)

type MongoBookingStore struct {
	col *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *MongoBookingStore {
	return &MongoBookingStore{col: db.Collection(BookingsCollection)}
}

// Create inserts the booking. A reference collision surfaces as ErrDuplicate
// and is not retried.
func (s *MongoBookingStore) Create(ctx context.Context, b *models.Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	return insert(ctx, s.col, b)
}

func (s *MongoBookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return findOne[models.Booking](ctx, s.col, bson.M{"_id": id})
}

func (s *MongoBookingStore) FindByReference(ctx context.Context, ref string) (*models.Booking, error) {
	return findOne[models.Booking](ctx, s.col, bson.M{"booking_reference": ref})
}

func (s *MongoBookingStore) Save(ctx context.Context, b *models.Booking) error {
	return replace(ctx, s.col, b.ID, b)
}

func (s *MongoBookingStore) List(ctx context.Context, q ListQuery) ([]models.Booking, int64, error) {
	return list[models.Booking](ctx, s.col, q)
}
