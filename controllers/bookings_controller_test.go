package controllers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
)

func hotelBookingBody(start string) gin.H {
	return gin.H{
		"type":       "hotel",
		"start_date": start,
		"hotel": gin.H{
			"name":      "Hotel Avenida",
			"check_in":  "2025-07-01T14:00:00Z",
			"check_out": "2025-07-04T11:00:00Z",
		},
		"travelers": gin.H{"adults": 2},
		"pricing":   gin.H{"base_price": 400, "taxes": 40, "fees": 10, "discount": 50},
	}
}

func (h *harness) seedBooking(user primitive.ObjectID, status models.BookingStatus, payment models.PaymentStatus) *models.Booking {
	h.t.Helper()
	b := &models.Booking{
		BookingReference: "ACT" + strings.ToUpper(primitive.NewObjectID().Hex()[15:]),
		UserID:           user,
		Type:             models.BookingActivity,
		Activity:         &models.ActivityDetails{Name: "Surf lesson", Date: testNow.AddDate(0, 1, 0)},
		Travelers:        models.Travelers{Adults: 1},
		StartDate:        testNow.AddDate(0, 1, 0),
		Pricing:          models.Pricing{BasePrice: 120, Total: 120, Currency: "EUR"},
		Status:           status,
		Payment:          models.Payment{Status: payment},
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
	if err := h.bookings.Create(context.Background(), b); err != nil {
		h.t.Fatalf("seed booking: %v", err)
	}
	return b
}

func TestCreateBookingPricing(t *testing.T) {
	h := newHarness(t)
	user, token := h.seedUser("guest", models.RoleUser)

	w, body := h.do(http.MethodPost, "/api/bookings", token, hotelBookingBody("2025-07-01T00:00:00Z"))
	expectStatus(t, w, http.StatusCreated)

	b := decodeData[models.Booking](t, body)
	if b.Pricing.Total != 400 {
		t.Fatalf("expected 400+40+10-50 = 400, got %v", b.Pricing.Total)
	}
	if b.Status != models.BookingPending || b.Payment.Status != models.PaymentPending || b.Pricing.Currency != "USD" {
		t.Fatalf("unexpected defaults %+v", b)
	}
	if !strings.HasPrefix(b.BookingReference, "HOT") || len(b.BookingReference) != 12 {
		t.Fatalf("unexpected reference %q", b.BookingReference)
	}
	if b.UserID != user.ID || b.Travelers.Adults != 2 {
		t.Fatalf("unexpected owner or party %+v", b)
	}
}

func TestCreateBookingSchedule(t *testing.T) {
	h := newHarness(t)
	_, token := h.seedUser("guest", models.RoleUser)

	w, body := h.do(http.MethodPost, "/api/bookings", token, hotelBookingBody("2025-06-01T00:00:00Z"))
	expectStatus(t, w, http.StatusBadRequest)
	if !hasFieldError(body.Errors, "start_date") {
		t.Fatalf("expected a start_date error, got %+v", body.Errors)
	}

	// Earlier today still counts as today.
	w, _ = h.do(http.MethodPost, "/api/bookings", token, hotelBookingBody("2025-06-15T08:00:00Z"))
	expectStatus(t, w, http.StatusCreated)
}

func TestCreateBookingAcceptsPlainDates(t *testing.T) {
	h := newHarness(t)
	_, token := h.seedUser("guest", models.RoleUser)

	payload := hotelBookingBody("2025-07-01")
	payload["end_date"] = "2025-07-04"
	payload["hotel"] = gin.H{"name": "Hotel Avenida", "check_in": "2025-07-01", "check_out": "2025-07-04"}
	w, body := h.do(http.MethodPost, "/api/bookings", token, payload)
	expectStatus(t, w, http.StatusCreated)

	b := decodeData[models.Booking](t, body)
	want := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !b.StartDate.Equal(want) || b.EndDate == nil || b.EndDate.Day() != 4 || b.Hotel.Nights() != 3 {
		t.Fatalf("unexpected dates %v %v %+v", b.StartDate, b.EndDate, b.Hotel)
	}

	w, body = h.do(http.MethodPut, "/api/bookings/"+b.ID.Hex(), token, gin.H{"start_date": "2025-07-02"})
	expectStatus(t, w, http.StatusOK)
	if got := decodeData[models.Booking](t, body); got.StartDate.Day() != 2 {
		t.Fatalf("expected the patched start date, got %v", got.StartDate)
	}
}

func TestCreateBookingBadDate(t *testing.T) {
	h := newHarness(t)
	_, token := h.seedUser("guest", models.RoleUser)

	w, body := h.do(http.MethodPost, "/api/bookings", token, hotelBookingBody("first of July"))
	expectStatus(t, w, http.StatusBadRequest)
	if len(body.Errors) != 1 || body.Errors[0].Field != "start_date" || !strings.Contains(body.Errors[0].Message, "YYYY-MM-DD") {
		t.Fatalf("expected a start_date format error, got %+v", body.Errors)
	}

	// start_date is still required once decoding succeeds.
	payload := hotelBookingBody("")
	delete(payload, "start_date")
	w, body = h.do(http.MethodPost, "/api/bookings", token, payload)
	expectStatus(t, w, http.StatusBadRequest)
	if !hasFieldError(body.Errors, "start_date") {
		t.Fatalf("expected a start_date error, got %+v", body.Errors)
	}
}

func TestCreateBookingDetailsMustMatchType(t *testing.T) {
	h := newHarness(t)
	_, token := h.seedUser("guest", models.RoleUser)

	payload := hotelBookingBody("2025-07-01T00:00:00Z")
	payload["type"] = "flight"
	w, body := h.do(http.MethodPost, "/api/bookings", token, payload)
	expectStatus(t, w, http.StatusBadRequest)
	if !hasFieldError(body.Errors, "flight") || !hasFieldError(body.Errors, "hotel") {
		t.Fatalf("expected flight and hotel errors, got %+v", body.Errors)
	}
}

func TestCreateBookingFromItinerary(t *testing.T) {
	h := newHarness(t)
	owner, _ := h.seedUser("owner", models.RoleUser)
	_, token := h.seedUser("guest", models.RoleUser)
	public := h.seedItinerary(owner.ID, models.ItineraryPublic, 1000)
	draft := h.seedItinerary(owner.ID, models.ItineraryDraft, 1000)

	payload := gin.H{
		"itinerary_id": public.ID.Hex(),
		"type":         "package",
		"start_date":   "2025-09-01T00:00:00Z",
		"package":      gin.H{"name": "Lisbon getaway"},
		"travelers":    gin.H{"adults": 2, "children": 1, "infants": 1},
	}
	w, body := h.do(http.MethodPost, "/api/bookings", token, payload)
	expectStatus(t, w, http.StatusCreated)

	b := decodeData[models.Booking](t, body)
	if b.Pricing.BasePrice != 2750 || b.Pricing.Total != 2750 {
		t.Fatalf("expected 2*1000 + 0.5*1000 + 0.25*1000 = 2750, got %+v", b.Pricing)
	}
	if b.Pricing.Currency != "EUR" || b.ItineraryID == nil || *b.ItineraryID != public.ID {
		t.Fatalf("expected the itinerary link and currency, got %+v", b)
	}

	payload["itinerary_id"] = draft.ID.Hex()
	w, _ = h.do(http.MethodPost, "/api/bookings", token, payload)
	expectStatus(t, w, http.StatusNotFound)
}

func TestBookingOwnership(t *testing.T) {
	h := newHarness(t)
	owner, ownerToken := h.seedUser("owner", models.RoleUser)
	_, otherToken := h.seedUser("other", models.RoleUser)
	_, adminToken := h.seedUser("admin", models.RoleAdmin)
	b := h.seedBooking(owner.ID, models.BookingPending, models.PaymentPending)
	path := "/api/bookings/" + b.ID.Hex()

	w, _ := h.do(http.MethodGet, path, otherToken, nil)
	expectStatus(t, w, http.StatusForbidden)
	w, _ = h.do(http.MethodGet, path, ownerToken, nil)
	expectStatus(t, w, http.StatusOK)
	w, _ = h.do(http.MethodGet, path, adminToken, nil)
	expectStatus(t, w, http.StatusOK)

	w, body := h.do(http.MethodGet, "/api/bookings/reference/"+strings.ToLower(b.BookingReference), ownerToken, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decodeData[models.Booking](t, body); got.ID != b.ID {
		t.Fatalf("expected lookup by reference to find %s", b.ID.Hex())
	}
	w, _ = h.do(http.MethodGet, "/api/bookings/reference/"+b.BookingReference, otherToken, nil)
	expectStatus(t, w, http.StatusForbidden)
}

func TestListBookingsScope(t *testing.T) {
	h := newHarness(t)
	user, userToken := h.seedUser("user", models.RoleUser)
	admin, adminToken := h.seedUser("admin", models.RoleAdmin)
	h.seedBooking(user.ID, models.BookingPending, models.PaymentPending)
	h.seedBooking(user.ID, models.BookingConfirmed, models.PaymentPaid)
	h.seedBooking(admin.ID, models.BookingPending, models.PaymentPending)

	tests := []struct {
		name  string
		path  string
		token string
		want  int64
	}{
		{"user sees own", "/api/bookings", userToken, 2},
		{"user filters status", "/api/bookings?status=confirmed", userToken, 1},
		{"admin sees all", "/api/bookings", adminToken, 3},
		{"admin mine", "/api/bookings?mine=true", adminToken, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := h.do(http.MethodGet, tt.path, tt.token, nil)
			expectStatus(t, w, http.StatusOK)
			if body.Pagination.Total != tt.want {
				t.Fatalf("expected %d bookings, got %d", tt.want, body.Pagination.Total)
			}
		})
	}
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t)
	user, token := h.seedUser("user", models.RoleUser)
	pending := h.seedBooking(user.ID, models.BookingPending, models.PaymentPending)
	paid := h.seedBooking(user.ID, models.BookingConfirmed, models.PaymentPaid)

	w, body := h.do(http.MethodPut, "/api/bookings/"+pending.ID.Hex()+"/cancel", token, nil)
	expectStatus(t, w, http.StatusOK)
	got := decodeData[models.Booking](t, body)
	if got.Status != models.BookingCancelled || got.Cancellation == nil || got.Cancellation.RefundAmount != 0 {
		t.Fatalf("unexpected cancellation %+v", got.Cancellation)
	}

	// Cancelling twice is an invalid transition.
	w, _ = h.do(http.MethodPut, "/api/bookings/"+pending.ID.Hex()+"/cancel", token, nil)
	expectStatus(t, w, http.StatusBadRequest)

	w, body = h.do(http.MethodPut, "/api/bookings/"+paid.ID.Hex()+"/cancel", token, gin.H{"reason": "plans changed"})
	expectStatus(t, w, http.StatusOK)
	got = decodeData[models.Booking](t, body)
	if got.Cancellation.RefundAmount != 120 || got.Cancellation.Reason != "plans changed" {
		t.Fatalf("expected a full refund with reason, got %+v", got.Cancellation)
	}
}

func TestUpdateBooking(t *testing.T) {
	h := newHarness(t)
	user, token := h.seedUser("user", models.RoleUser)
	b := h.seedBooking(user.ID, models.BookingPending, models.PaymentPending)
	done := h.seedBooking(user.ID, models.BookingCompleted, models.PaymentPaid)

	w, body := h.do(http.MethodPut, "/api/bookings/"+b.ID.Hex(), token, gin.H{
		"pricing": gin.H{"taxes": 30, "discount": 10},
	})
	expectStatus(t, w, http.StatusOK)
	if got := decodeData[models.Booking](t, body); got.Pricing.Total != 140 {
		t.Fatalf("expected 120+30-10 = 140, got %v", got.Pricing.Total)
	}

	w, _ = h.do(http.MethodPut, "/api/bookings/"+b.ID.Hex(), token, gin.H{"start_date": "2025-01-01T00:00:00Z"})
	expectStatus(t, w, http.StatusBadRequest)

	w, _ = h.do(http.MethodPut, "/api/bookings/"+done.ID.Hex(), token, gin.H{"special_requests": "late check-in"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestUpdateBookingStatus(t *testing.T) {
	h := newHarness(t)
	user, userToken := h.seedUser("user", models.RoleUser)
	_, adminToken := h.seedUser("admin", models.RoleAdmin)
	b := h.seedBooking(user.ID, models.BookingPending, models.PaymentPending)
	path := "/api/bookings/" + b.ID.Hex() + "/status"

	w, _ := h.do(http.MethodPut, path, userToken, gin.H{"status": "confirmed"})
	expectStatus(t, w, http.StatusForbidden)

	w, _ = h.do(http.MethodPut, path, adminToken, gin.H{"status": "completed"})
	expectStatus(t, w, http.StatusBadRequest)

	w, _ = h.do(http.MethodPut, path, adminToken, gin.H{"status": "confirmed"})
	expectStatus(t, w, http.StatusOK)
	w, _ = h.do(http.MethodPut, path, adminToken, gin.H{"status": "completed"})
	expectStatus(t, w, http.StatusOK)

	stored, _ := h.users.FindByID(context.Background(), user.ID)
	if stored.Stats.TripsCompleted != 1 {
		t.Fatalf("expected one completed trip, got %d", stored.Stats.TripsCompleted)
	}
}

func TestBookingStats(t *testing.T) {
	h := newHarness(t)
	user, token := h.seedUser("user", models.RoleUser)
	h.seedBooking(user.ID, models.BookingPending, models.PaymentPending)
	h.seedBooking(user.ID, models.BookingCancelled, models.PaymentPending)

	w, body := h.do(http.MethodGet, "/api/bookings/stats", token, nil)
	expectStatus(t, w, http.StatusOK)
	stats := decodeData[models.BookingStats](t, body)
	if stats.TotalBookings != 2 || stats.Upcoming != 1 || stats.ByStatus[models.BookingRefunded] != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCreateBookingSendsEmail(t *testing.T) {
	h := newHarness(t)
	mailer := &memMailer{sent: make(chan string, 1)}
	h.env.Mailer = mailer
	_, token := h.seedUser("guest", models.RoleUser)

	w, _ := h.do(http.MethodPost, "/api/bookings", token, hotelBookingBody("2025-07-01T00:00:00Z"))
	expectStatus(t, w, http.StatusCreated)

	select {
	case sent := <-mailer.sent:
		if !strings.HasPrefix(sent, "guest@example.com|") {
			t.Fatalf("unexpected recipient %q", sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a booking email")
	}
}
