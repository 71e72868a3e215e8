package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/travel-planner-go/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	UsersCollection       = "users"
	ItinerariesCollection = "itineraries"
	BookingsCollection    = "bookings"
	ReviewsCollection     = "reviews"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
	List(ctx context.Context, q ListQuery) ([]models.User, int64, error)
	// IncrementStat adjusts one of the profile counters (see UserStat*).
	IncrementStat(ctx context.Context, id primitive.ObjectID, stat string, delta int) error
}

type ItineraryStore interface {
	Create(ctx context.Context, it *models.Itinerary) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Itinerary, error)
	Save(ctx context.Context, it *models.Itinerary) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q ListQuery) ([]models.Itinerary, int64, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	SetRating(ctx context.Context, id primitive.ObjectID, r models.Rating) error
	Stats(ctx context.Context, creator primitive.ObjectID) (models.ItineraryStats, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	FindByReference(ctx context.Context, ref string) (*models.Booking, error)
	Save(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, q ListQuery) ([]models.Booking, int64, error)
	Stats(ctx context.Context, user primitive.ObjectID, now time.Time) (models.BookingStats, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Save(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q ListQuery) ([]models.Review, int64, error)
	// Exists reports whether the author already reviewed the same target.
	Exists(ctx context.Context, r *models.Review) (bool, error)
	ItineraryRating(ctx context.Context, itinerary primitive.ObjectID) (models.Rating, error)
}

var (
	_ UserStore      = (*MongoUserStore)(nil)
	_ ItineraryStore = (*MongoItineraryStore)(nil)
	_ BookingStore   = (*MongoBookingStore)(nil)
	_ ReviewStore    = (*MongoReviewStore)(nil)
)

// ---------------- shared helpers ----------------

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	return &out, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc any) error {
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s: %w", col.Name(), ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", col.Name(), err)
	}
	return nil
}

// replace writes the whole document back. Concurrent writers are
// last-write-wins.
func replace(ctx context.Context, col *mongo.Collection, id primitive.ObjectID, doc any) error {
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("replace %s: %w", col.Name(), ErrDuplicate)
		}
		return fmt.Errorf("replace %s: %w", col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func list[T any](ctx context.Context, col *mongo.Collection, q ListQuery) ([]T, int64, error) {
	total, err := col.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", col.Name(), err)
	}

	opts := options.Find().
		SetSort(q.Sort).
		SetSkip(q.Page.Skip()).
		SetLimit(int64(q.Page.Limit))
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}

	cursor, err := col.Find(ctx, q.Filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", col.Name(), err)
	}

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", col.Name(), err)
	}
	return items, total, nil
}
