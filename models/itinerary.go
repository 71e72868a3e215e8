package models

import (
	"encoding/json"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItineraryStatus string

const (
	ItineraryPublic   ItineraryStatus = "public"
	ItineraryDraft    ItineraryStatus = "draft"
	ItineraryArchived ItineraryStatus = "archived"
)

var ItineraryStatuses = []ItineraryStatus{ItineraryPublic, ItineraryDraft, ItineraryArchived}

// Coordinates struct for latitude and longitude
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `bson:"lng" json:"lng" validate:"gte=-180,lte=180"`
}

type Destination struct {
	City        string       `bson:"city" json:"city" validate:"required,max=100"`
	Country     string       `bson:"country" json:"country" validate:"required,max=100"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Money struct {
	Amount   float64 `bson:"amount" json:"amount" validate:"gte=0"`
	Currency string  `bson:"currency,omitempty" json:"currency,omitempty" validate:"omitempty,len=3"`
}

type Activity struct {
	Name        string  `bson:"name" json:"name" validate:"required,max=200"`
	Description string  `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
	Time        string  `bson:"time,omitempty" json:"time,omitempty" validate:"max=20"`
	Location    string  `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
	Cost        Money   `bson:"cost" json:"cost"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty" validate:"omitempty,oneof=sightseeing food adventure culture shopping relaxation transport other"`
	DurationMin int     `bson:"duration_min,omitempty" json:"duration_min,omitempty" validate:"gte=0"`
	Rating      float64 `bson:"rating,omitempty" json:"rating,omitempty" validate:"gte=0,lte=5"`
}

type Day struct {
	DayNumber  int        `bson:"day_number" json:"day_number" validate:"gte=1"`
	Date       *time.Time `bson:"date,omitempty" json:"date,omitempty"`
	Title      string     `bson:"title,omitempty" json:"title,omitempty" validate:"max=200"`
	Activities []Activity `bson:"activities" json:"activities" validate:"max=30,dive"`
	Notes      string     `bson:"notes,omitempty" json:"notes,omitempty" validate:"max=1000"`
}

type Accommodation struct {
	Name     string     `bson:"name,omitempty" json:"name,omitempty" validate:"max=200"`
	Type     string     `bson:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=hotel hostel apartment resort guesthouse camping other"`
	Address  string     `bson:"address,omitempty" json:"address,omitempty" validate:"max=300"`
	CheckIn  *time.Time `bson:"check_in,omitempty" json:"check_in,omitempty"`
	CheckOut *time.Time `bson:"check_out,omitempty" json:"check_out,omitempty"`
	Cost     Money      `bson:"cost" json:"cost"`
}

type TransportLeg struct {
	Type    string `bson:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=flight train bus car ferry bike walk other"`
	Details string `bson:"details,omitempty" json:"details,omitempty" validate:"max=500"`
	Cost    Money  `bson:"cost" json:"cost"`
}

type Transportation struct {
	Arrival   TransportLeg `bson:"arrival" json:"arrival"`
	Local     TransportLeg `bson:"local" json:"local"`
	Departure TransportLeg `bson:"departure" json:"departure"`
}

type BudgetBreakdown struct {
	Accommodation  float64 `bson:"accommodation" json:"accommodation" validate:"gte=0"`
	Food           float64 `bson:"food" json:"food" validate:"gte=0"`
	Activities     float64 `bson:"activities" json:"activities" validate:"gte=0"`
	Transportation float64 `bson:"transportation" json:"transportation" validate:"gte=0"`
	Shopping       float64 `bson:"shopping" json:"shopping" validate:"gte=0"`
	Other          float64 `bson:"other" json:"other" validate:"gte=0"`
}

func (b BudgetBreakdown) Sum() float64 {
	return b.Accommodation + b.Food + b.Activities + b.Transportation + b.Shopping + b.Other
}

type Budget struct {
	Total     float64         `bson:"total" json:"total" validate:"gte=0"`
	Currency  string          `bson:"currency" json:"currency" validate:"omitempty,len=3"`
	Breakdown BudgetBreakdown `bson:"breakdown" json:"breakdown"`
}

type Duration struct {
	Days   int `bson:"days" json:"days" validate:"gte=1,lte=365"`
	Nights int `bson:"nights" json:"nights"`
}

type Engagement struct {
	Likes int `bson:"likes" json:"likes"`
	Views int `bson:"views" json:"views"`
}

type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

type Itinerary struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatorID      primitive.ObjectID   `bson:"creator_id" json:"creator_id"`
	Title          string               `bson:"title" json:"title" validate:"required,min=3,max=100"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty" validate:"max=2000"`
	Destination    Destination          `bson:"destination" json:"destination"`
	StartDate      *time.Time           `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate        *time.Time           `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Duration       Duration             `bson:"duration" json:"duration"`
	Days           []Day                `bson:"days" json:"days" validate:"max=365,dive"`
	Accommodation  Accommodation        `bson:"accommodation" json:"accommodation"`
	Transportation Transportation       `bson:"transportation" json:"transportation"`
	Budget         Budget               `bson:"budget" json:"budget"`
	Tags           []string             `bson:"tags" json:"tags" validate:"max=20,dive,min=1,max=30"`
	Difficulty     string               `bson:"difficulty,omitempty" json:"difficulty,omitempty" validate:"omitempty,oneof=easy moderate challenging"`
	Season         string               `bson:"season,omitempty" json:"season,omitempty" validate:"omitempty,oneof=spring summer autumn winter any"`
	Status         ItineraryStatus      `bson:"status" json:"status" validate:"required,oneof=public draft archived"`
	Images         []string             `bson:"images" json:"images"`
	Likes          []primitive.ObjectID `bson:"likes" json:"-"`
	Stats          Engagement           `bson:"stats" json:"stats"`
	Rating         Rating               `bson:"rating" json:"rating"`
	AIGenerated    bool                 `bson:"ai_generated" json:"ai_generated"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`

	// Enriched fields
	IsLiked bool `bson:"-" json:"is_liked,omitempty"`
}

func (it *Itinerary) UnmarshalJSON(b []byte) error {
	type plain Itinerary
	aux := struct {
		*plain
		StartDate *Date `json:"start_date"`
		EndDate   *Date `json:"end_date"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	it.StartDate, it.EndDate = aux.StartDate.Ptr(), aux.EndDate.Ptr()
	return nil
}

// RecalculateBudget derives the accommodation, activities and transportation
// sub-totals from their cost fields. The total follows the breakdown while it
// is zero or still equal to the previous breakdown sum. Any other total was set
// by the caller and is kept.
func (it *Itinerary) RecalculateBudget() {
	derived := it.Budget.Total == 0 || it.Budget.Total == it.Budget.Breakdown.Sum()

	var activities float64
	for _, d := range it.Days {
		for _, a := range d.Activities {
			activities += a.Cost.Amount
		}
	}

	t := it.Transportation
	b := &it.Budget.Breakdown
	b.Activities = activities
	b.Accommodation = it.Accommodation.Cost.Amount
	b.Transportation = t.Arrival.Cost.Amount + t.Local.Cost.Amount + t.Departure.Cost.Amount

	if derived {
		it.Budget.Total = b.Sum()
	}
}

// DeriveDuration fills duration.days from the date range when it is missing and
// always sets nights to days-1.
func (it *Itinerary) DeriveDuration() {
	if it.Duration.Days == 0 && it.StartDate != nil && it.EndDate != nil {
		span := int(dayStart(*it.EndDate).Sub(dayStart(*it.StartDate)).Hours()/24) + 1
		if span > 0 {
			it.Duration.Days = span
		}
	}
	it.Duration.Nights = max(it.Duration.Days-1, 0)
}

// ToggleLike adds or removes the user's like and reports the new state.
func (it *Itinerary) ToggleLike(user primitive.ObjectID) bool {
	if i := slices.Index(it.Likes, user); i >= 0 {
		it.Likes = slices.Delete(it.Likes, i, i+1)
		it.RecountLikes()
		return false
	}
	it.Likes = append(it.Likes, user)
	it.RecountLikes()
	return true
}

func (it *Itinerary) RecountLikes() {
	it.Stats.Likes = len(it.Likes)
}

// VisibleTo hides drafts and archived plans from everyone but the owner and
// admins. A nil caller is an anonymous request.
func (it *Itinerary) VisibleTo(c *Caller) bool {
	if it.Status == ItineraryPublic {
		return true
	}
	return c != nil && c.CanManage(it.CreatorID)
}

func (it *Itinerary) Validate() error {
	errs := validateStruct(it)
	if it.StartDate != nil && it.EndDate != nil && it.EndDate.Before(*it.StartDate) {
		errs.Add("end_date", "must be on or after start_date")
	}
	return errs.Err()
}

// ItineraryPatch carries the editable fields of an update.
type ItineraryPatch struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Destination    *Destination     `json:"destination"`
	StartDate      *Date            `json:"start_date"`
	EndDate        *Date            `json:"end_date"`
	Duration       *Duration        `json:"duration"`
	Days           *[]Day           `json:"days"`
	Accommodation  *Accommodation   `json:"accommodation"`
	Transportation *Transportation  `json:"transportation"`
	Budget         *Budget          `json:"budget"`
	Tags           *[]string        `json:"tags"`
	Difficulty     *string          `json:"difficulty"`
	Season         *string          `json:"season"`
	Status         *ItineraryStatus `json:"status"`
	Images         *[]string        `json:"images"`
}

// ItineraryChanges reports which derived fields the patch invalidated.
type ItineraryChanges struct {
	Costs    bool
	Duration bool
	Any      bool
}

func (it *Itinerary) Apply(p ItineraryPatch) ItineraryChanges {
	var ch ItineraryChanges
	if p.Title != nil {
		it.Title, ch.Any = *p.Title, true
	}
	if p.Description != nil {
		it.Description, ch.Any = *p.Description, true
	}
	if p.Destination != nil {
		it.Destination, ch.Any = *p.Destination, true
	}
	if p.StartDate != nil {
		it.StartDate, ch.Duration = p.StartDate.Ptr(), true
	}
	if p.EndDate != nil {
		it.EndDate, ch.Duration = p.EndDate.Ptr(), true
	}
	if p.Duration != nil {
		it.Duration, ch.Duration = *p.Duration, true
	}
	if p.Days != nil {
		it.Days, ch.Costs = *p.Days, true
	}
	if p.Accommodation != nil {
		it.Accommodation, ch.Costs = *p.Accommodation, true
	}
	if p.Transportation != nil {
		it.Transportation, ch.Costs = *p.Transportation, true
	}
	if p.Budget != nil {
		// Sub-totals owned by cost fields survive a budget edit.
		derived := it.Budget.Breakdown
		it.Budget = *p.Budget
		it.Budget.Breakdown.Accommodation = derived.Accommodation
		it.Budget.Breakdown.Activities = derived.Activities
		it.Budget.Breakdown.Transportation = derived.Transportation
		ch.Any = true
	}
	if p.Tags != nil {
		it.Tags, ch.Any = *p.Tags, true
	}
	if p.Difficulty != nil {
		it.Difficulty, ch.Any = *p.Difficulty, true
	}
	if p.Season != nil {
		it.Season, ch.Any = *p.Season, true
	}
	if p.Status != nil {
		it.Status, ch.Any = *p.Status, true
	}
	if p.Images != nil {
		it.Images, ch.Any = *p.Images, true
	}
	ch.Any = ch.Any || ch.Costs || ch.Duration
	return ch
}

// Duplicate copies a plan as a fresh draft owned by someone else.
func (it *Itinerary) Duplicate(owner primitive.ObjectID, now time.Time) *Itinerary {
	cp := *it
	cp.ID = primitive.NilObjectID
	cp.CreatorID = owner
	cp.Title = it.Title
	if len(cp.Title) <= 93 {
		cp.Title += " (copy)"
	}
	cp.Status = ItineraryDraft
	cp.Days = slices.Clone(it.Days)
	cp.Tags = slices.Clone(it.Tags)
	cp.Images = slices.Clone(it.Images)
	cp.Likes = []primitive.ObjectID{}
	cp.Stats = Engagement{}
	cp.Rating = Rating{}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.IsLiked = false
	return &cp
}
