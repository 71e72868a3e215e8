package models

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingType string

const (
	BookingFlight   BookingType = "flight"
	BookingHotel    BookingType = "hotel"
	BookingActivity BookingType = "activity"
	BookingPackage  BookingType = "package"
)

var bookingTypes = []BookingType{BookingFlight, BookingHotel, BookingActivity, BookingPackage}

func (t BookingType) Valid() bool {
	for _, bt := range bookingTypes {
		if t == bt {
			return true
		}
	}
	return false
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingRefunded  BookingStatus = "refunded"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted, BookingRefunded}

// ActiveBookingStatuses are the statuses counted as upcoming trips.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// Allowed status edges. Anything not listed is unreachable through the API.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted, BookingRefunded},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Modifiable reports whether the update and cancel operations may still touch
// a booking in this status.
func (s BookingStatus) Modifiable() bool {
	return s == BookingPending || s == BookingConfirmed
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type FlightLeg struct {
	Airport  string    `bson:"airport" json:"airport" validate:"required,max=100"`
	City     string    `bson:"city,omitempty" json:"city,omitempty" validate:"max=100"`
	DateTime time.Time `bson:"date_time" json:"date_time" validate:"required"`
}

func (l *FlightLeg) UnmarshalJSON(b []byte) error {
	type plain FlightLeg
	aux := struct {
		*plain
		DateTime Date `json:"date_time"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	l.DateTime = aux.DateTime.Time
	return nil
}

type FlightDetails struct {
	Airline      string    `bson:"airline" json:"airline" validate:"required,max=100"`
	FlightNumber string    `bson:"flight_number" json:"flight_number" validate:"required,max=20"`
	Departure    FlightLeg `bson:"departure" json:"departure"`
	Arrival      FlightLeg `bson:"arrival" json:"arrival"`
	Class        string    `bson:"class,omitempty" json:"class,omitempty" validate:"omitempty,oneof=economy premium-economy business first"`
}

type HotelDetails struct {
	HotelID  string    `bson:"hotel_id,omitempty" json:"hotel_id,omitempty"`
	Name     string    `bson:"name" json:"name" validate:"required,max=200"`
	Address  string    `bson:"address,omitempty" json:"address,omitempty" validate:"max=300"`
	CheckIn  time.Time `bson:"check_in" json:"check_in" validate:"required"`
	CheckOut time.Time `bson:"check_out" json:"check_out" validate:"required,gtfield=CheckIn"`
	RoomType string    `bson:"room_type,omitempty" json:"room_type,omitempty" validate:"max=100"`
	Rooms    int       `bson:"rooms,omitempty" json:"rooms,omitempty" validate:"omitempty,gte=1,lte=10"`
}

func (h *HotelDetails) UnmarshalJSON(b []byte) error {
	type plain HotelDetails
	aux := struct {
		*plain
		CheckIn  Date `json:"check_in"`
		CheckOut Date `json:"check_out"`
	}{plain: (*plain)(h)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	h.CheckIn, h.CheckOut = aux.CheckIn.Time, aux.CheckOut.Time
	return nil
}

// Nights is the number of nights between check-in and check-out.
func (h HotelDetails) Nights() int {
	n := int(dayStart(h.CheckOut).Sub(dayStart(h.CheckIn)).Hours() / 24)
	return max(n, 0)
}

type ActivityDetails struct {
	Name          string    `bson:"name" json:"name" validate:"required,max=200"`
	Location      string    `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
	Date          time.Time `bson:"date" json:"date" validate:"required"`
	DurationHours float64   `bson:"duration_hours,omitempty" json:"duration_hours,omitempty" validate:"gte=0"`
}

func (a *ActivityDetails) UnmarshalJSON(b []byte) error {
	type plain ActivityDetails
	aux := struct {
		*plain
		Date Date `json:"date"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.Date = aux.Date.Time
	return nil
}

type PackageDetails struct {
	Name        string   `bson:"name" json:"name" validate:"required,max=200"`
	Description string   `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
	Includes    []string `bson:"includes,omitempty" json:"includes,omitempty" validate:"max=50"`
}

type Payment struct {
	Method        string        `bson:"method,omitempty" json:"method,omitempty" validate:"omitempty,oneof=card paypal bank_transfer cash"`
	Status        PaymentStatus `bson:"status" json:"status" validate:"omitempty,oneof=pending paid refunded failed"`
	TransactionID string        `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

type ContactInfo struct {
	Email string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty" validate:"max=30"`
}

type Cancellation struct {
	Reason       string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CancelledAt  time.Time `bson:"cancelled_at" json:"cancelled_at"`
	RefundAmount float64   `bson:"refund_amount" json:"refund_amount"`
}

// Booking is a reservation. Only the details record matching Type is set.
type Booking struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BookingReference string              `bson:"booking_reference" json:"booking_reference"`
	UserID           primitive.ObjectID  `bson:"user_id" json:"user_id"`
	ItineraryID      *primitive.ObjectID `bson:"itinerary_id,omitempty" json:"itinerary_id,omitempty"`
	Type             BookingType         `bson:"type" json:"type" validate:"required,oneof=flight hotel activity package"`

	Flight   *FlightDetails   `bson:"flight,omitempty" json:"flight,omitempty"`
	Hotel    *HotelDetails    `bson:"hotel,omitempty" json:"hotel,omitempty"`
	Activity *ActivityDetails `bson:"activity,omitempty" json:"activity,omitempty"`
	Package  *PackageDetails  `bson:"package,omitempty" json:"package,omitempty"`

	Travelers       Travelers     `bson:"travelers" json:"travelers"`
	StartDate       time.Time     `bson:"start_date" json:"start_date" validate:"required"`
	EndDate         *time.Time    `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Pricing         Pricing       `bson:"pricing" json:"pricing"`
	Status          BookingStatus `bson:"status" json:"status" validate:"required,oneof=pending confirmed cancelled completed refunded"`
	Payment         Payment       `bson:"payment" json:"payment"`
	ContactInfo     ContactInfo   `bson:"contact_info" json:"contact_info"`
	SpecialRequests string        `bson:"special_requests,omitempty" json:"special_requests,omitempty" validate:"max=1000"`
	Cancellation    *Cancellation `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}

// RecalculatePricing stores the derived total. Call it whenever a pricing
// input changed in the current mutation.
func (b *Booking) RecalculatePricing() {
	b.Pricing.Total = CalculateTotal(b.Pricing)
}

// Validate checks field constraints and the type-dependent details record.
func (b *Booking) Validate() error {
	errs := validateStruct(b)

	present := map[BookingType]bool{
		BookingFlight:   b.Flight != nil,
		BookingHotel:    b.Hotel != nil,
		BookingActivity: b.Activity != nil,
		BookingPackage:  b.Package != nil,
	}
	for _, t := range bookingTypes {
		if present[t] && t != b.Type {
			errs.Add(string(t), fmt.Sprintf("must be empty for %s bookings", b.Type))
		}
	}
	if b.Type.Valid() && !present[b.Type] {
		errs.Add(string(b.Type), fmt.Sprintf("is required for %s bookings", b.Type))
	}

	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		errs.Add("end_date", "must be on or after start_date")
	}
	return errs.Err()
}

// ValidateSchedule rejects bookings that start before today.
func (b *Booking) ValidateSchedule(now time.Time) error {
	if !b.StartDate.IsZero() && b.StartDate.Before(dayStart(now)) {
		return ValidationErrors{{Field: "start_date", Message: "cannot be in the past"}}
	}
	return nil
}

// BookingPatch carries the caller-editable fields of an update. Nil means
// "leave as is".
type BookingPatch struct {
	Flight          *FlightDetails   `json:"flight"`
	Hotel           *HotelDetails    `json:"hotel"`
	Activity        *ActivityDetails `json:"activity"`
	Package         *PackageDetails  `json:"package"`
	Travelers       *Travelers       `json:"travelers"`
	StartDate       *Date            `json:"start_date"`
	EndDate         *Date            `json:"end_date"`
	Pricing         *PricingPatch    `json:"pricing"`
	ContactInfo     *ContactInfo     `json:"contact_info"`
	SpecialRequests *string          `json:"special_requests"`
	Payment         *Payment         `json:"payment"`
}

type PricingPatch struct {
	BasePrice *float64 `json:"base_price"`
	Taxes     *float64 `json:"taxes"`
	Fees      *float64 `json:"fees"`
	Discount  *float64 `json:"discount"`
	Currency  *string  `json:"currency"`
}

// BookingChanges tells the caller which derived fields need recomputing.
type BookingChanges struct {
	Pricing  bool
	Schedule bool
	Any      bool
}

func (b *Booking) Apply(p BookingPatch) BookingChanges {
	var ch BookingChanges
	switch b.Type {
	case BookingFlight:
		if p.Flight != nil {
			b.Flight, ch.Any = p.Flight, true
		}
	case BookingHotel:
		if p.Hotel != nil {
			b.Hotel, ch.Any = p.Hotel, true
		}
	case BookingActivity:
		if p.Activity != nil {
			b.Activity, ch.Any = p.Activity, true
		}
	case BookingPackage:
		if p.Package != nil {
			b.Package, ch.Any = p.Package, true
		}
	}
	if p.Travelers != nil {
		b.Travelers, ch.Any = *p.Travelers, true
	}
	if p.StartDate != nil {
		b.StartDate, ch.Schedule, ch.Any = p.StartDate.Time, true, true
	}
	if p.EndDate != nil {
		b.EndDate, ch.Any = p.EndDate.Ptr(), true
	}
	if p.ContactInfo != nil {
		b.ContactInfo, ch.Any = *p.ContactInfo, true
	}
	if p.SpecialRequests != nil {
		b.SpecialRequests, ch.Any = *p.SpecialRequests, true
	}
	if p.Payment != nil {
		b.Payment, ch.Any = *p.Payment, true
	}
	if pp := p.Pricing; pp != nil {
		if pp.BasePrice != nil {
			b.Pricing.BasePrice, ch.Pricing = *pp.BasePrice, true
		}
		if pp.Taxes != nil {
			b.Pricing.Taxes, ch.Pricing = *pp.Taxes, true
		}
		if pp.Fees != nil {
			b.Pricing.Fees, ch.Pricing = *pp.Fees, true
		}
		if pp.Discount != nil {
			b.Pricing.Discount, ch.Pricing = *pp.Discount, true
		}
		if pp.Currency != nil {
			b.Pricing.Currency, ch.Any = *pp.Currency, true
		}
		ch.Any = ch.Any || ch.Pricing
	}
	return ch
}

// Cancel moves a modifiable booking to cancelled. A paid booking records a
// full refund amount.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !CanTransition(b.Status, BookingCancelled) {
		return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	refund := 0.0
	if b.Payment.Status == PaymentPaid {
		refund = b.Pricing.Total
	}
	b.Status = BookingCancelled
	b.Cancellation = &Cancellation{Reason: reason, CancelledAt: now, RefundAmount: refund}
	b.UpdatedAt = now
	return nil
}

// Transition applies an allowed status change.
func (b *Booking) Transition(to BookingStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	if to == BookingCancelled {
		return b.Cancel("", now)
	}
	b.Status = to
	if to == BookingRefunded {
		b.Payment.Status = PaymentRefunded
	}
	b.UpdatedAt = now
	return nil
}

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateBookingReference builds the human readable identifier:
// first three letters of the type, the last six digits of the epoch
// milliseconds and three random base36 characters, e.g. HOT482913K7Q.
// A nil rnd draws from the global source.
func GenerateBookingReference(t BookingType, now time.Time, rnd *rand.Rand) string {
	intN := rand.IntN
	if rnd != nil {
		intN = rnd.IntN
	}

	prefix := strings.ToUpper(string(t))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	fmt.Fprintf(&sb, "%06d", now.UnixMilli()%1_000_000)
	for range 3 {
		sb.WriteByte(referenceAlphabet[intN(len(referenceAlphabet))])
	}
	return sb.String()
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
