package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/travel-planner-go/config"
	"github.com/phillip/travel-planner-go/controllers"
	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/routes"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

const testSecret = "test-secret"

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	t           *testing.T
	env         *controllers.Env
	users       *memUsers
	itineraries *memItineraries
	bookings    *memBookings
	reviews     *memReviews
	media       *memMedia
	hotels      *stubHotels
	planner     *stubPlanner
	router      *gin.Engine
}

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Pagination *store.PageInfo     `json:"pagination"`
	Errors     []models.FieldError `json:"errors"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		t:           t,
		users:       newMemUsers(),
		itineraries: newMemItineraries(),
		bookings:    newMemBookings(),
		reviews:     newMemReviews(),
		media:       &memMedia{},
		hotels:      &stubHotels{},
		planner:     &stubPlanner{},
	}
	h.env = &controllers.Env{
		Config: &config.Config{
			AppEnv:         "test",
			JWTSecret:      testSecret,
			JWTExpiry:      time.Hour,
			RequestTimeout: 2 * time.Second,
		},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:       h.users,
		Itineraries: h.itineraries,
		Bookings:    h.bookings,
		Reviews:     h.reviews,
		Media:       h.media,
		Hotels:      h.hotels,
		AI:          h.planner,
		Now:         func() time.Time { return testNow },
	}
	h.router = routes.SetupRoutes(h.env)
	return h
}

// seedUser stores an active user without hashing a password and returns a
// bearer token for it.
func (h *harness) seedUser(name string, role models.Role) (*models.User, string) {
	h.t.Helper()
	u := &models.User{
		Name:        name,
		Email:       name + "@example.com",
		Role:        role,
		IsActive:    true,
		Preferences: models.Preferences{Interests: []string{}},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	if err := h.users.Create(context.Background(), u); err != nil {
		h.t.Fatalf("seed user: %v", err)
	}
	token, err := utils.GenerateToken(testSecret, u.ID.Hex(), string(role), time.Hour, testNow)
	if err != nil {
		h.t.Fatalf("token: %v", err)
	}
	return u, token
}

func (h *harness) seedItinerary(owner primitive.ObjectID, status models.ItineraryStatus, total float64) *models.Itinerary {
	h.t.Helper()
	it := &models.Itinerary{
		CreatorID:   owner,
		Title:       "Weekend in Lisbon",
		Destination: models.Destination{City: "Lisbon", Country: "Portugal"},
		Duration:    models.Duration{Days: 3, Nights: 2},
		Days:        []models.Day{},
		Budget:      models.Budget{Total: total, Currency: "EUR"},
		Tags:        []string{},
		Status:      status,
		Images:      []string{},
		Likes:       []primitive.ObjectID{},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	if err := h.itineraries.Create(context.Background(), it); err != nil {
		h.t.Fatalf("seed itinerary: %v", err)
	}
	return it
}

func (h *harness) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			h.t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

// upload posts image parts under field as multipart form data.
func (h *harness) upload(path, token, field string, names ...string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, n := range names {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, n))
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			h.t.Fatalf("create part: %v", err)
		}
		part.Write([]byte("fake image bytes"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		h.t.Fatalf("decode upload response: %v (%s)", err, w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func hasFieldError(errs []models.FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}
