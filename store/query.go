package store

import (
	"math"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
)

const (
	DefaultItineraryLimit = 12
	DefaultBookingLimit   = 10
	DefaultReviewLimit    = 20
	DefaultUserLimit      = 20
	MaxLimit              = 100
	MaxPage               = 1_000_000
)

// Page is a resolved page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps the raw page and limit values. Anything below one falls back
// to the first page and the entity's default limit; pages above MaxPage and
// limits above MaxLimit are capped so the skip cannot overflow.
func NewPage(page, limit, defaultLimit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func (p Page) Info(total int64) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return PageInfo{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// ListQuery is what the repositories execute: predicate, order and window.
type ListQuery struct {
	Filter     bson.M
	Sort       bson.D
	Page       Page
	Projection bson.M
}

var defaultSort = bson.D{{Key: "created_at", Value: -1}}

func resolveSort(table map[string]bson.D, key string) bson.D {
	if s, ok := table[strings.ToLower(strings.TrimSpace(key))]; ok {
		return s
	}
	return defaultSort
}

// containsInsensitive matches a literal substring regardless of case.
func containsInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func rangeOf[T int | float64](lo, hi *T) bson.M {
	r := bson.M{}
	if lo != nil {
		r["$gte"] = *lo
	}
	if hi != nil {
		r["$lte"] = *hi
	}
	return r
}

// ---------------- ITINERARIES ----------------

var itinerarySorts = map[string]bson.D{
	"newest":      {{Key: "created_at", Value: -1}},
	"oldest":      {{Key: "created_at", Value: 1}},
	"popular":     {{Key: "stats.likes", Value: -1}, {Key: "created_at", Value: -1}},
	"rating":      {{Key: "rating.average", Value: -1}, {Key: "rating.count", Value: -1}},
	"budget-low":  {{Key: "budget.total", Value: 1}},
	"budget-high": {{Key: "budget.total", Value: -1}},
	"duration":    {{Key: "duration.days", Value: 1}},
}

type ItineraryFilter struct {
	Status      string   `form:"status"`
	Destination string   `form:"destination"`
	MinDuration *int     `form:"min_duration"`
	MaxDuration *int     `form:"max_duration"`
	MinBudget   *float64 `form:"min_budget"`
	MaxBudget   *float64 `form:"max_budget"`
	Tags        string   `form:"tags"`
	Difficulty  string   `form:"difficulty"`
	Season      string   `form:"season"`
	Sort        string   `form:"sort"`
	Page        int      `form:"page"`
	Limit       int      `form:"limit"`

	Creator *primitive.ObjectID `form:"-"`
}

func (f ItineraryFilter) Predicate() bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Creator != nil {
		filter["creator_id"] = *f.Creator
	}
	if d := strings.TrimSpace(f.Destination); d != "" {
		re := containsInsensitive(d)
		filter["$or"] = bson.A{
			bson.M{"destination.city": re},
			bson.M{"destination.country": re},
		}
	}
	if r := rangeOf(f.MinDuration, f.MaxDuration); len(r) > 0 {
		filter["duration.days"] = r
	}
	if r := rangeOf(f.MinBudget, f.MaxBudget); len(r) > 0 {
		filter["budget.total"] = r
	}
	if tags := splitCSV(f.Tags); len(tags) > 0 {
		filter["tags"] = bson.M{"$in": tags}
	}
	if f.Difficulty != "" {
		filter["difficulty"] = f.Difficulty
	}
	if f.Season != "" {
		filter["season"] = f.Season
	}
	return filter
}

func (f ItineraryFilter) Query() ListQuery {
	return ListQuery{
		Filter: f.Predicate(),
		Sort:   resolveSort(itinerarySorts, f.Sort),
		Page:   NewPage(f.Page, f.Limit, DefaultItineraryLimit),
	}
}

// ---------------- BOOKINGS ----------------

var bookingSorts = map[string]bson.D{
	"newest": {{Key: "created_at", Value: -1}},
	"oldest": {{Key: "created_at", Value: 1}},
	"date":   {{Key: "start_date", Value: 1}},
	"price":  {{Key: "pricing.total", Value: -1}},
}

type BookingFilter struct {
	Status string `form:"status"`
	Type   string `form:"type"`
	Sort   string `form:"sort"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`

	// Nil only for admin listings across all users.
	User *primitive.ObjectID `form:"-"`
}

func (f BookingFilter) Predicate() bson.M {
	filter := bson.M{}
	if f.User != nil {
		filter["user_id"] = *f.User
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	return filter
}

func (f BookingFilter) Query() ListQuery {
	return ListQuery{
		Filter: f.Predicate(),
		Sort:   resolveSort(bookingSorts, f.Sort),
		Page:   NewPage(f.Page, f.Limit, DefaultBookingLimit),
	}
}

// ---------------- REVIEWS ----------------

var reviewSorts = map[string]bson.D{
	"newest":      {{Key: "created_at", Value: -1}},
	"oldest":      {{Key: "created_at", Value: 1}},
	"rating-high": {{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}},
	"rating-low":  {{Key: "rating", Value: 1}, {Key: "created_at", Value: -1}},
	"helpful":     {{Key: "stats.helpful", Value: -1}, {Key: "created_at", Value: -1}},
}

type ReviewFilter struct {
	ReviewType  string `form:"review_type"`
	ItineraryID string `form:"itinerary_id"`
	ExternalID  string `form:"external_id"`
	City        string `form:"city"`
	MinRating   int    `form:"min_rating"`
	Author      string `form:"author"`
	Moderation  string `form:"moderation"`
	Sort        string `form:"sort"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`

	// IncludeHidden lifts the approved-only default; only admins get it.
	IncludeHidden bool `form:"-"`
}

func (f ReviewFilter) Predicate() bson.M {
	filter := bson.M{}
	if f.ReviewType != "" {
		filter["review_type"] = f.ReviewType
	}
	if oid, err := primitive.ObjectIDFromHex(f.ItineraryID); err == nil {
		filter["itinerary.itinerary_id"] = oid
	}
	if f.ExternalID != "" {
		filter["place.external_id"] = f.ExternalID
	}
	if c := strings.TrimSpace(f.City); c != "" {
		filter["destination.city"] = containsInsensitive(c)
	}
	if f.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": f.MinRating}
	}
	if oid, err := primitive.ObjectIDFromHex(f.Author); err == nil {
		filter["author_id"] = oid
	}

	switch {
	case f.IncludeHidden && f.Moderation != "":
		filter["moderation.status"] = f.Moderation
	case !f.IncludeHidden:
		filter["moderation.status"] = models.ModerationApproved
	}
	return filter
}

func (f ReviewFilter) Query() ListQuery {
	return ListQuery{
		Filter: f.Predicate(),
		Sort:   resolveSort(reviewSorts, f.Sort),
		Page:   NewPage(f.Page, f.Limit, DefaultReviewLimit),
	}
}

// ReviewTarget is the predicate identifying what a review is about, used to
// stop a user reviewing the same thing twice.
func ReviewTarget(r *models.Review) bson.M {
	filter := bson.M{"author_id": r.AuthorID, "review_type": r.ReviewType}
	switch {
	case r.Itinerary != nil:
		filter["itinerary.itinerary_id"] = r.Itinerary.ItineraryID
	case r.Place != nil && r.Place.ExternalID != "":
		filter["place.external_id"] = r.Place.ExternalID
	case r.Place != nil:
		filter["place.name"] = r.Place.Name
	case r.Destination != nil:
		filter["destination.city"] = r.Destination.City
		filter["destination.country"] = r.Destination.Country
	}
	return filter
}

// ---------------- USERS ----------------

type UserFilter struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Active *bool  `form:"active"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (f UserFilter) Query() ListQuery {
	filter := bson.M{}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := containsInsensitive(s)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	return ListQuery{
		Filter:     filter,
		Sort:       defaultSort,
		Page:       NewPage(f.Page, f.Limit, DefaultUserLimit),
		Projection: bson.M{"password": 0},
	}
}
