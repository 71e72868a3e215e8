package controllers_test

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/travel-planner-go/integrations/ai"
	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
)

// In-memory stand-ins for the Mongo repositories. List only understands the
// equality filters the handlers build.

func page[T any](items []T, q store.ListQuery) ([]T, int64) {
	total := int64(len(items))
	start := min(int(q.Page.Skip()), len(items))
	end := min(start+q.Page.Limit, len(items))
	return append([]T{}, items[start:end]...), total
}

func filterID(q store.ListQuery, key string) (primitive.ObjectID, bool) {
	v, ok := q.Filter[key].(primitive.ObjectID)
	return v, ok
}

func filterString(q store.ListQuery, key string) (string, bool) {
	switch v := q.Filter[key].(type) {
	case string:
		return v, true
	case models.ModerationStatus:
		return string(v), true
	}
	return "", false
}

// ---------------- users ----------------

type memUsers struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.User
	stats map[string]int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (s *memUsers) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memUsers) Save(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memUsers) List(_ context.Context, q store.ListQuery) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.byID {
		if role, ok := filterString(q, "role"); ok && string(u.Role) != role {
			continue
		}
		out = append(out, *u)
	}
	items, total := page(out, q)
	return items, total, nil
}

func (s *memUsers) IncrementStat(_ context.Context, id primitive.ObjectID, stat string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	switch stat {
	case store.UserStatTripsCompleted:
		u.Stats.TripsCompleted += delta
	case store.UserStatReviewsCount:
		u.Stats.ReviewsCount += delta
	}
	return nil
}

// ---------------- itineraries ----------------

type memItineraries struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.Itinerary
	order  []primitive.ObjectID
	rating map[primitive.ObjectID]models.Rating
}

func newMemItineraries() *memItineraries {
	return &memItineraries{
		byID:   map[primitive.ObjectID]*models.Itinerary{},
		rating: map[primitive.ObjectID]models.Rating{},
	}
}

func (s *memItineraries) Create(_ context.Context, it *models.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	cp := *it
	s.byID[it.ID] = &cp
	s.order = append(s.order, it.ID)
	return nil
}

func (s *memItineraries) FindByID(_ context.Context, id primitive.ObjectID) (*models.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memItineraries) Save(_ context.Context, it *models.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[it.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *it
	s.byID[it.ID] = &cp
	return nil
}

func (s *memItineraries) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memItineraries) List(_ context.Context, q store.ListQuery) ([]models.Itinerary, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Itinerary
	for _, id := range s.order {
		it, ok := s.byID[id]
		if !ok {
			continue
		}
		if status, ok := filterString(q, "status"); ok && string(it.Status) != status {
			continue
		}
		if creator, ok := filterID(q, "creator_id"); ok && it.CreatorID != creator {
			continue
		}
		out = append(out, *it)
	}
	items, total := page(out, q)
	return items, total, nil
}

func (s *memItineraries) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.byID[id]; ok {
		it.Stats.Views++
	}
	return nil
}

func (s *memItineraries) SetRating(_ context.Context, id primitive.ObjectID, r models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.byID[id]; ok {
		it.Rating = r
	}
	return nil
}

func (s *memItineraries) Stats(_ context.Context, creator primitive.ObjectID) (models.ItineraryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.NewItineraryStats()
	for _, it := range s.byID {
		if it.CreatorID != creator {
			continue
		}
		stats.ByStatus[it.Status]++
		stats.Total++
		stats.TotalLikes += int64(it.Stats.Likes)
		stats.TotalViews += int64(it.Stats.Views)
	}
	return stats, nil
}

// ---------------- bookings ----------------

type memBookings struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{byID: map[primitive.ObjectID]*models.Booking{}}
}

func (s *memBookings) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.BookingReference == b.BookingReference {
			return store.ErrDuplicate
		}
	}
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	cp := *b
	s.byID[b.ID] = &cp
	return nil
}

func (s *memBookings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memBookings) FindByReference(_ context.Context, ref string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.byID {
		if b.BookingReference == ref {
			cp := *b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memBookings) Save(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *b
	s.byID[b.ID] = &cp
	return nil
}

func (s *memBookings) List(_ context.Context, q store.ListQuery) ([]models.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.byID {
		if user, ok := filterID(q, "user_id"); ok && b.UserID != user {
			continue
		}
		if status, ok := filterString(q, "status"); ok && string(b.Status) != status {
			continue
		}
		out = append(out, *b)
	}
	items, total := page(out, q)
	return items, total, nil
}

func (s *memBookings) Stats(_ context.Context, user primitive.ObjectID, now time.Time) (models.BookingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.NewBookingStats()
	for _, b := range s.byID {
		if b.UserID != user {
			continue
		}
		stats.ByStatus[b.Status]++
		stats.TotalBookings++
		stats.TotalSpent += b.Pricing.Total
		if !b.StartDate.Before(now) && b.Status.Modifiable() {
			stats.Upcoming++
		}
	}
	return stats, nil
}

// ---------------- reviews ----------------

type memReviews struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Review
}

func newMemReviews() *memReviews {
	return &memReviews{byID: map[primitive.ObjectID]*models.Review{}}
}

func (s *memReviews) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *memReviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memReviews) Save(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memReviews) List(_ context.Context, q store.ListQuery) ([]models.Review, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, r := range s.byID {
		if status, ok := filterString(q, "moderation.status"); ok && string(r.Moderation.Status) != status {
			continue
		}
		if it, ok := filterID(q, "itinerary.itinerary_id"); ok && (r.Itinerary == nil || r.Itinerary.ItineraryID != it) {
			continue
		}
		out = append(out, *r)
	}
	items, total := page(out, q)
	return items, total, nil
}

func (s *memReviews) Exists(_ context.Context, r *models.Review) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.AuthorID != r.AuthorID || other.ReviewType != r.ReviewType {
			continue
		}
		switch {
		case r.Itinerary != nil && other.Itinerary != nil && r.Itinerary.ItineraryID == other.Itinerary.ItineraryID:
			return true, nil
		case r.Place != nil && other.Place != nil && r.Place.Name == other.Place.Name:
			return true, nil
		case r.Destination != nil && other.Destination != nil && r.Destination.City == other.Destination.City:
			return true, nil
		}
	}
	return false, nil
}

func (s *memReviews) ItineraryRating(_ context.Context, id primitive.ObjectID) (models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, n int
	for _, r := range s.byID {
		if r.Itinerary != nil && r.Itinerary.ItineraryID == id && r.Moderation.Status == models.ModerationApproved {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return models.Rating{}, nil
	}
	return models.Rating{Average: float64(sum) / float64(n), Count: n}, nil
}

// ---------------- third parties ----------------

type memMedia struct {
	mu      sync.Mutex
	deleted []string
	delay   time.Duration
}

func (m *memMedia) Upload(_ context.Context, _ multipart.File, folder string) (string, error) {
	time.Sleep(m.delay)
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + primitive.NewObjectID().Hex() + ".jpg", nil
}

func (m *memMedia) Delete(_ context.Context, u string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, u)
	return nil
}

type memMailer struct {
	sent chan string
}

func (m *memMailer) Send(_ context.Context, to, _, subject, _ string) error {
	m.sent <- to + "|" + subject
	return nil
}

type stubHotels struct {
	err    error
	params url.Values
}

func (s *stubHotels) SearchDestinations(_ context.Context, query string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`[{"name":"` + query + `"}]`), nil
}

func (s *stubHotels) SearchHotels(_ context.Context, params url.Values) (json.RawMessage, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"result":[{"hotel_id":1}]}`), nil
}

func (s *stubHotels) GetHotel(_ context.Context, id string, _ url.Values) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"hotel_id":"` + id + `"}`), nil
}

type stubPlanner struct {
	plan *models.Itinerary
	err  error
}

func (s *stubPlanner) GenerateItinerary(_ context.Context, r ai.ItineraryRequest) (*models.Itinerary, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.plan
	return &cp, nil
}

func (s *stubPlanner) Suggestions(_ context.Context, _ ai.SuggestionRequest) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"suggestions":[]}`), nil
}

var (
	_ store.UserStore      = (*memUsers)(nil)
	_ store.ItineraryStore = (*memItineraries)(nil)
	_ store.BookingStore   = (*memBookings)(nil)
	_ store.ReviewStore    = (*memReviews)(nil)
)
