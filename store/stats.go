package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/travel-planner-go/models"
)

// ---------------- BOOKINGS ----------------

// BookingStatsPipeline computes the whole booking report for one user in a
// single round trip.
func BookingStatsPipeline(user primitive.ObjectID, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": user}}},
		{{Key: "$facet", Value: bson.M{
			"by_status": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":    nil,
					"count":  bson.M{"$sum": 1},
					"amount": bson.M{"$sum": "$pricing.total"},
				}},
			},
			"upcoming": bson.A{
				bson.M{"$match": bson.M{
					"start_date": bson.M{"$gte": now},
					"status":     bson.M{"$in": models.ActiveBookingStatuses},
				}},
				bson.M{"$count": "count"},
			},
			"monthly": bson.A{
				bson.M{"$match": bson.M{"created_at": bson.M{"$gte": models.MonthlyWindowStart(now)}}},
				bson.M{"$group": bson.M{
					"_id": bson.M{
						"year":  bson.M{"$year": "$created_at"},
						"month": bson.M{"$month": "$created_at"},
					},
					"count":  bson.M{"$sum": 1},
					"amount": bson.M{"$sum": "$pricing.total"},
				}},
				bson.M{"$sort": bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}},
			},
		}}},
	}
}

type statusCount struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}

type bookingFacets struct {
	ByStatus []statusCount `bson:"by_status"`
	Totals   []struct {
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	} `bson:"totals"`
	Upcoming []struct {
		Count int64 `bson:"count"`
	} `bson:"upcoming"`
	Monthly []struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	} `bson:"monthly"`
}

// fold turns the facet output into the report. Missing facets stay zero.
func (f bookingFacets) fold() models.BookingStats {
	stats := models.NewBookingStats()
	for _, s := range f.ByStatus {
		stats.ByStatus[models.BookingStatus(s.Status)] = s.Count
	}
	if len(f.Totals) > 0 {
		stats.TotalBookings = f.Totals[0].Count
		stats.TotalSpent = f.Totals[0].Amount
	}
	if len(f.Upcoming) > 0 {
		stats.Upcoming = f.Upcoming[0].Count
	}
	for _, m := range f.Monthly {
		stats.Monthly = append(stats.Monthly, models.MonthlyBookings{
			Year:   m.ID.Year,
			Month:  m.ID.Month,
			Count:  m.Count,
			Amount: m.Amount,
		})
	}
	stats.SortMonthly()
	return stats
}

func (s *MongoBookingStore) Stats(ctx context.Context, user primitive.ObjectID, now time.Time) (models.BookingStats, error) {
	cursor, err := s.col.Aggregate(ctx, BookingStatsPipeline(user, now))
	if err != nil {
		return models.BookingStats{}, fmt.Errorf("booking stats: %w", err)
	}
	var out []bookingFacets
	if err := cursor.All(ctx, &out); err != nil {
		return models.BookingStats{}, fmt.Errorf("decode booking stats: %w", err)
	}
	if len(out) == 0 {
		return models.NewBookingStats(), nil
	}
	return out[0].fold(), nil
}

// ---------------- ITINERARIES ----------------

func ItineraryStatsPipeline(creator primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"creator_id": creator}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"likes": bson.M{"$sum": "$stats.likes"},
			"views": bson.M{"$sum": "$stats.views"},
		}}},
	}
}

type itineraryGroup struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
	Likes  int64  `bson:"likes"`
	Views  int64  `bson:"views"`
}

func foldItineraryStats(groups []itineraryGroup) models.ItineraryStats {
	stats := models.NewItineraryStats()
	for _, g := range groups {
		stats.ByStatus[models.ItineraryStatus(g.Status)] = g.Count
		stats.Total += g.Count
		stats.TotalLikes += g.Likes
		stats.TotalViews += g.Views
	}
	return stats
}

func (s *MongoItineraryStore) Stats(ctx context.Context, creator primitive.ObjectID) (models.ItineraryStats, error) {
	cursor, err := s.col.Aggregate(ctx, ItineraryStatsPipeline(creator))
	if err != nil {
		return models.ItineraryStats{}, fmt.Errorf("itinerary stats: %w", err)
	}
	var groups []itineraryGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return models.ItineraryStats{}, fmt.Errorf("decode itinerary stats: %w", err)
	}
	return foldItineraryStats(groups), nil
}

// ---------------- RATINGS ----------------

// ItineraryRatingPipeline averages the approved reviews of one itinerary.
func ItineraryRatingPipeline(itinerary primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"review_type":            models.ReviewItinerary,
			"itinerary.itinerary_id": itinerary,
			"moderation.status":      models.ModerationApproved,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
}

func (s *MongoReviewStore) ItineraryRating(ctx context.Context, itinerary primitive.ObjectID) (models.Rating, error) {
	cursor, err := s.col.Aggregate(ctx, ItineraryRatingPipeline(itinerary))
	if err != nil {
		return models.Rating{}, fmt.Errorf("itinerary rating: %w", err)
	}
	var out []struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return models.Rating{}, fmt.Errorf("decode itinerary rating: %w", err)
	}
	if len(out) == 0 {
		return models.Rating{}, nil
	}
	return models.Rating{Average: math.Round(out[0].Average*10) / 10, Count: out[0].Count}, nil
}
