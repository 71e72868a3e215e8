package controllers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/travel-planner-go/models"
)

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	u, token := h.seedUser("profile", models.RoleUser)

	w, body := h.do(http.MethodPut, "/api/users/profile", token, gin.H{"bio": "Slow traveller", "location": "Porto"})
	expectStatus(t, w, http.StatusOK)
	got := decodeData[models.User](t, body)
	if got.Bio != "Slow traveller" || got.Location != "Porto" || got.Name != u.Name {
		t.Fatalf("unexpected profile %+v", got)
	}

	w, body = h.do(http.MethodPut, "/api/users/profile", token, gin.H{"name": "X"})
	expectStatus(t, w, http.StatusBadRequest)
	if !hasFieldError(body.Errors, "name") {
		t.Fatalf("expected a name error, got %+v", body.Errors)
	}
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	u, token := h.seedUser("avatar", models.RoleUser)
	u.Avatar = "https://res.cloudinary.com/demo/image/upload/v1/avatars/old.jpg"
	if err := h.users.Save(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	w, body := h.upload("/api/users/avatar", token, "avatar", "me.jpg")
	expectStatus(t, w, http.StatusOK)
	got := decodeData[map[string]string](t, body)
	if !strings.Contains(got["avatar"], "/avatars/") {
		t.Fatalf("expected an avatar url, got %v", got)
	}
	if len(h.media.deleted) != 1 || h.media.deleted[0] != u.Avatar {
		t.Fatalf("expected the old avatar to be removed, got %v", h.media.deleted)
	}
}

func TestUploadAvatarSlowUpload(t *testing.T) {
	h := newHarness(t)
	_, token := h.seedUser("slow", models.RoleUser)
	h.env.Config.RequestTimeout = 50 * time.Millisecond
	h.media.delay = 150 * time.Millisecond

	w, body := h.upload("/api/users/avatar", token, "avatar", "me.jpg")
	expectStatus(t, w, http.StatusOK)
	if got := decodeData[map[string]string](t, body); got["avatar"] == "" {
		t.Fatalf("expected the avatar to be saved after a slow upload, got %v", got)
	}
}

func TestUploadItineraryImagesLimit(t *testing.T) {
	h := newHarness(t)
	owner, token := h.seedUser("owner", models.RoleUser)
	it := h.seedItinerary(owner.ID, models.ItineraryPublic, 100)
	path := "/api/itineraries/" + it.ID.Hex() + "/images"

	w, body := h.upload(path, token, "images", "a.jpg", "b.jpg")
	expectStatus(t, w, http.StatusOK)
	if got := decodeData[map[string][]string](t, body); len(got["images"]) != 2 {
		t.Fatalf("expected two images, got %v", got)
	}

	names := make([]string, 9)
	for i := range names {
		names[i] = "more.jpg"
	}
	w, _ = h.upload(path, token, "images", names...)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestUserStats(t *testing.T) {
	h := newHarness(t)
	u, token := h.seedUser("stats", models.RoleUser)
	h.seedItinerary(u.ID, models.ItineraryPublic, 100)
	h.seedItinerary(u.ID, models.ItineraryDraft, 100)
	h.seedBooking(u.ID, models.BookingConfirmed, models.PaymentPaid)
	if err := h.users.IncrementStat(context.Background(), u.ID, "stats.trips_completed", 2); err != nil {
		t.Fatal(err)
	}

	w, body := h.do(http.MethodGet, "/api/users/stats", token, nil)
	expectStatus(t, w, http.StatusOK)
	d := decodeData[models.UserDashboard](t, body)
	if d.Profile.TripsCompleted != 2 || d.Bookings.TotalBookings != 1 || d.Bookings.TotalSpent != 120 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if d.Itineraries.Total != 2 || d.Itineraries.ByStatus[models.ItineraryDraft] != 1 {
		t.Fatalf("unexpected itinerary stats %+v", d.Itineraries)
	}
}

func TestDeleteAccountBlocksFurtherRequests(t *testing.T) {
	h := newHarness(t)
	u, token := h.seedUser("leaving", models.RoleUser)

	w, _ := h.do(http.MethodDelete, "/api/users/account", token, nil)
	expectStatus(t, w, http.StatusOK)

	stored, _ := h.users.FindByID(context.Background(), u.ID)
	if stored.IsActive || stored.Email == u.Email {
		t.Fatalf("expected a deactivated account with a released email, got %+v", stored)
	}

	w, body := h.do(http.MethodGet, "/api/auth/me", token, nil)
	expectStatus(t, w, http.StatusUnauthorized)
	if body.Message != "Account is deactivated" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestListUsersAdminOnly(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.seedUser("user", models.RoleUser)
	_, adminToken := h.seedUser("admin", models.RoleAdmin)

	w, _ := h.do(http.MethodGet, "/api/users", userToken, nil)
	expectStatus(t, w, http.StatusForbidden)

	w, body := h.do(http.MethodGet, "/api/users?role=admin", adminToken, nil)
	expectStatus(t, w, http.StatusOK)
	if body.Pagination.Total != 1 || body.Pagination.Limit != 20 {
		t.Fatalf("unexpected pagination %+v", body.Pagination)
	}
}
