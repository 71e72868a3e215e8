package models

import (
	"sort"
	"time"
)

type MonthlyBookings struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// BookingStats is the per-user booking report. Every numeric field is zero
// rather than absent when the user has no bookings.
type BookingStats struct {
	ByStatus      map[BookingStatus]int64 `json:"by_status"`
	TotalBookings int64                   `json:"total_bookings"`
	TotalSpent    float64                 `json:"total_spent"`
	Upcoming      int64                   `json:"upcoming"`
	Monthly       []MonthlyBookings       `json:"monthly"`
}

// NewBookingStats returns the empty report with every status present.
func NewBookingStats() BookingStats {
	by := make(map[BookingStatus]int64, len(BookingStatuses))
	for _, s := range BookingStatuses {
		by[s] = 0
	}
	return BookingStats{ByStatus: by, Monthly: []MonthlyBookings{}}
}

// SortMonthly orders the monthly buckets chronologically.
func (s *BookingStats) SortMonthly() {
	sort.Slice(s.Monthly, func(i, j int) bool {
		a, b := s.Monthly[i], s.Monthly[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
}

// MonthlyWindowStart is the lower bound of the monthly report.
func MonthlyWindowStart(now time.Time) time.Time {
	return now.Add(-365 * 24 * time.Hour)
}

type ItineraryStats struct {
	ByStatus   map[ItineraryStatus]int64 `json:"by_status"`
	Total      int64                     `json:"total"`
	TotalLikes int64                     `json:"total_likes"`
	TotalViews int64                     `json:"total_views"`
}

func NewItineraryStats() ItineraryStats {
	by := make(map[ItineraryStatus]int64, len(ItineraryStatuses))
	for _, s := range ItineraryStatuses {
		by[s] = 0
	}
	return ItineraryStats{ByStatus: by}
}

// UserDashboard is the combined report served on the profile stats endpoint.
type UserDashboard struct {
	Profile     UserStats      `json:"profile"`
	Bookings    BookingStats   `json:"bookings"`
	Itineraries ItineraryStats `json:"itineraries"`
}
