package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/travel-planner-go/config"
	"github.com/phillip/travel-planner-go/integrations/ai"
	"github.com/phillip/travel-planner-go/integrations/hotels"
	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

// HotelProvider is the hotel catalog the proxy endpoints forward to.
type HotelProvider interface {
	SearchDestinations(ctx context.Context, query string) (json.RawMessage, error)
	SearchHotels(ctx context.Context, params url.Values) (json.RawMessage, error)
	GetHotel(ctx context.Context, hotelID string, params url.Values) (json.RawMessage, error)
}

// Planner generates itineraries and suggestions from a language model.
type Planner interface {
	GenerateItinerary(ctx context.Context, r ai.ItineraryRequest) (*models.Itinerary, error)
	Suggestions(ctx context.Context, r ai.SuggestionRequest) (json.RawMessage, error)
}

var (
	_ HotelProvider = (*hotels.Client)(nil)
	_ Planner       = (*ai.Client)(nil)
)

var (
	errItineraryNotFound = utils.NotFound("Itinerary not found")
	errReviewNotFound    = utils.NotFound("Review not found")
)

// Env holds what the handlers share. Build it once in main.
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	Users       store.UserStore
	Itineraries store.ItineraryStore
	Bookings    store.BookingStore
	Reviews     store.ReviewStore

	Media  utils.MediaStore
	Mailer utils.Mailer
	Hotels HotelProvider
	AI     Planner

	// Now is swapped in tests.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// timeout bounds the store calls of one request.
func (e *Env) timeout(c *gin.Context) (context.Context, context.CancelFunc) {
	d := 5 * time.Second
	if e.Config != nil && e.Config.RequestTimeout > 0 {
		d = e.Config.RequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), d)
}

// caller reads the authenticated user or answers 401.
func caller(c *gin.Context) (models.Caller, bool) {
	u, ok := utils.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Not authorized")
	}
	return u, ok
}

// bindJSON decodes the body and renders binding failures as field errors.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.Fail(c, models.TranslateValidation(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		utils.Fail(c, models.TranslateValidation(err))
		return false
	}
	return true
}

// upstream maps third-party failures onto the response taxonomy.
func upstream(service string, err error) error {
	switch {
	case errors.Is(err, hotels.ErrNotConfigured), errors.Is(err, ai.ErrNotConfigured):
		return utils.NewError(http.StatusServiceUnavailable, service+" is not configured")
	case errors.Is(err, ai.ErrInvalidResponse):
		return utils.Internal("Failed to parse AI response", err)
	case errors.Is(err, context.DeadlineExceeded):
		return &utils.APIError{Status: http.StatusGatewayTimeout, Message: service + " timed out", Err: err}
	}
	return utils.BadGateway(service+" unavailable", err)
}
