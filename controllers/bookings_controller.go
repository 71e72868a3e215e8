package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

// loadOwnedBooking answers 404 for unknown ids and 403 for other users'
// bookings.
func (e *Env) loadOwnedBooking(c *gin.Context, who models.Caller) (*models.Booking, bool) {
	id, err := utils.ParamID(c, "id", "booking")
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}

	ctx, cancel := e.timeout(c)
	defer cancel()

	b, err := e.Bookings.FindByID(ctx, id)
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}
	if !who.CanManage(b.UserID) {
		utils.Fail(c, utils.ErrAccessDenied)
		return nil, false
	}
	return b, true
}

// notifyBooking mails the booking owner in the background. Mail failures
// never fail the request.
func (e *Env) notifyBooking(c *gin.Context, b *models.Booking) {
	if e.Mailer == nil {
		return
	}
	logger := utils.Logger(c)
	snapshot := *b
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		to, name := snapshot.ContactInfo.Email, ""
		if u, err := e.Users.FindByID(ctx, snapshot.UserID); err == nil {
			name = u.Name
			if to == "" {
				to = u.Email
			}
		}
		if to == "" {
			return
		}

		subject, body, err := utils.BookingEmail(&snapshot, name)
		if err == nil {
			err = e.Mailer.Send(ctx, to, name, subject, body)
		}
		if err != nil {
			logger.Warn("booking email failed", "booking", snapshot.BookingReference, "error", err)
		}
	}()
}

// ---------------- LIST ----------------
func ListBookings(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var filter store.BookingFilter
		if !bindQuery(c, &filter) {
			return
		}
		// Admins list every booking unless they ask for their own.
		if !who.IsAdmin() || c.Query("mine") == "true" {
			filter.User = &who.ID
		}
		q := filter.Query()

		ctx, cancel := env.timeout(c)
		defer cancel()

		items, total, err := env.Bookings.List(ctx, q)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONPage(c, items, q.Page.Info(total))
	}
}

// ---------------- STATS ----------------
func BookingStats(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		stats, err := env.Bookings.Stats(ctx, who.ID, env.now())
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, stats)
	}
}

// ---------------- GET ----------------
func GetBooking(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		b, ok := env.loadOwnedBooking(c, who)
		if !ok {
			return
		}
		if utils.NotModified(c, b.ID, b.UpdatedAt) {
			return
		}
		utils.JSONSuccess(c, http.StatusOK, b)
	}
}

func GetBookingByReference(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		b, err := env.Bookings.FindByReference(ctx, strings.ToUpper(strings.TrimSpace(c.Param("ref"))))
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if !who.CanManage(b.UserID) {
			utils.Fail(c, utils.ErrAccessDenied)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, b)
	}
}

// ---------------- CREATE ----------------
type createBookingInput struct {
	ItineraryID     string                  `json:"itinerary_id"`
	Type            models.BookingType      `json:"type" binding:"required"`
	Flight          *models.FlightDetails   `json:"flight"`
	Hotel           *models.HotelDetails    `json:"hotel"`
	Activity        *models.ActivityDetails `json:"activity"`
	Package         *models.PackageDetails  `json:"package"`
	Travelers       *models.Travelers       `json:"travelers"`
	StartDate       models.Date             `json:"start_date"`
	EndDate         *models.Date            `json:"end_date"`
	Pricing         models.Pricing          `json:"pricing"`
	Payment         models.Payment          `json:"payment"`
	ContactInfo     models.ContactInfo      `json:"contact_info"`
	SpecialRequests string                  `json:"special_requests"`
}

func CreateBooking(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input createBookingInput
		if !bindJSON(c, &input) {
			return
		}

		now := env.now()
		b := &models.Booking{
			UserID:          who.ID,
			Type:            input.Type,
			Flight:          input.Flight,
			Hotel:           input.Hotel,
			Activity:        input.Activity,
			Package:         input.Package,
			Travelers:       models.Travelers{Adults: 1},
			StartDate:       input.StartDate.Time,
			EndDate:         input.EndDate.Ptr(),
			Pricing:         input.Pricing,
			Status:          models.BookingPending,
			Payment:         input.Payment,
			ContactInfo:     input.ContactInfo,
			SpecialRequests: input.SpecialRequests,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if input.Travelers != nil {
			b.Travelers = *input.Travelers
		}
		if b.Payment.Status == "" {
			b.Payment.Status = models.PaymentPending
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		// --- Price from the linked itinerary when no base price was sent ---
		if input.ItineraryID != "" {
			itID, err := primitive.ObjectIDFromHex(input.ItineraryID)
			if err != nil {
				utils.Fail(c, models.ValidationErrors{{Field: "itinerary_id", Message: "must be a valid id"}})
				return
			}
			it, err := env.Itineraries.FindByID(ctx, itID)
			if errors.Is(err, store.ErrNotFound) || (err == nil && !it.VisibleTo(&who)) {
				utils.Fail(c, errItineraryNotFound)
				return
			}
			if err != nil {
				utils.Fail(c, err)
				return
			}
			b.ItineraryID = &it.ID
			if b.Pricing.BasePrice == 0 && it.Budget.Total > 0 {
				b.Pricing.BasePrice = models.TravellerPrice(it.Budget.Total, b.Travelers)
			}
			if b.Pricing.Currency == "" {
				b.Pricing.Currency = it.Budget.Currency
			}
		}
		if b.Pricing.Currency == "" {
			b.Pricing.Currency = "USD"
		}

		if err := b.ValidateSchedule(now); err != nil {
			utils.Fail(c, err)
			return
		}
		b.RecalculatePricing()
		if err := b.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}

		b.BookingReference = models.GenerateBookingReference(b.Type, now, nil)
		if err := env.Bookings.Create(ctx, b); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				// Reference collisions are reported, not retried.
				utils.JSONError(c, http.StatusBadRequest, "Booking reference already exists, please retry")
				return
			}
			utils.Fail(c, err)
			return
		}

		env.notifyBooking(c, b)
		utils.JSONMessage(c, http.StatusCreated, "Booking created successfully", b)
	}
}

// ---------------- UPDATE ----------------
func UpdateBooking(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		b, ok := env.loadOwnedBooking(c, who)
		if !ok {
			return
		}
		if !b.Status.Modifiable() {
			utils.Fail(c, fmt.Errorf("%w: booking is %s", models.ErrNotModifiable, b.Status))
			return
		}

		var patch models.BookingPatch
		if !bindJSON(c, &patch) {
			return
		}

		changes := b.Apply(patch)
		if !changes.Any {
			utils.JSONError(c, http.StatusBadRequest, "No fields to update")
			return
		}

		now := env.now()
		if changes.Schedule {
			if err := b.ValidateSchedule(now); err != nil {
				utils.Fail(c, err)
				return
			}
		}
		if changes.Pricing {
			b.RecalculatePricing()
		}
		if err := b.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		b.UpdatedAt = now

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Bookings.Save(ctx, b); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Booking updated successfully", b)
	}
}

// ---------------- CANCEL ----------------
func CancelBooking(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		b, ok := env.loadOwnedBooking(c, who)
		if !ok {
			return
		}

		var input struct {
			Reason string `json:"reason" binding:"max=500"`
		}
		if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
			return
		}

		if err := b.Cancel(input.Reason, env.now()); err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Bookings.Save(ctx, b); err != nil {
			utils.Fail(c, err)
			return
		}

		env.notifyBooking(c, b)
		utils.JSONMessage(c, http.StatusOK, "Booking cancelled successfully", b)
	}
}

// ---------------- STATUS (admin) ----------------
func UpdateBookingStatus(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		b, ok := env.loadOwnedBooking(c, who)
		if !ok {
			return
		}

		var input struct {
			Status models.BookingStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed refunded"`
		}
		if !bindJSON(c, &input) {
			return
		}

		if err := b.Transition(input.Status, env.now()); err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Bookings.Save(ctx, b); err != nil {
			utils.Fail(c, err)
			return
		}
		if b.Status == models.BookingCompleted {
			if err := env.Users.IncrementStat(ctx, b.UserID, store.UserStatTripsCompleted, 1); err != nil {
				utils.Logger(c).Warn("trip counter update failed", "user", b.UserID.Hex(), "error", err)
			}
		}
		utils.JSONMessage(c, http.StatusOK, "Booking status updated", b)
	}
}
