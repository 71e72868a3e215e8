package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
)

type ItineraryRequest struct {
	Destination string     `json:"destination" binding:"required,max=200"`
	Days        int        `json:"days" binding:"required,min=1,max=30"`
	Budget      float64    `json:"budget" binding:"gte=0"`
	Currency    string     `json:"currency" binding:"omitempty,len=3"`
	Interests   []string   `json:"interests" binding:"max=20"`
	TravelStyle string     `json:"travel_style" binding:"omitempty,oneof=budget mid-range luxury adventure relaxation cultural"`
	StartDate   *time.Time `json:"start_date"`
}

type SuggestionRequest struct {
	Destination string   `json:"destination" binding:"required,max=200"`
	Kind        string   `json:"type" binding:"omitempty,oneof=activities restaurants attractions tips"`
	Interests   []string `json:"interests" binding:"max=20"`
	TravelStyle string   `json:"travel_style"`
	Count       int      `json:"count" binding:"omitempty,min=1,max=20"`
}

var (
	activityCategories = []string{"sightseeing", "food", "adventure", "culture", "shopping", "relaxation", "transport", "other"}
	accommodationTypes = []string{"hotel", "hostel", "apartment", "resort", "guesthouse", "camping", "other"}
	transportTypes     = []string{"flight", "train", "bus", "car", "ferry", "bike", "walk", "other"}
	difficulties       = []string{"easy", "moderate", "challenging"}
	seasons            = []string{"spring", "summer", "autumn", "winter", "any"}
)

// GenerateItinerary asks the model for a plan and maps the reply onto an
// unsaved itinerary. Derived budget and duration fields are left to the caller.
func (c *Client) GenerateItinerary(ctx context.Context, r ItineraryRequest) (*models.Itinerary, error) {
	if r.Currency == "" {
		r.Currency = "USD"
	}
	prompt, err := renderItineraryPrompt(r)
	if err != nil {
		return nil, err
	}
	reply, err := c.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var it models.Itinerary
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	normalize(&it, r)
	return &it, nil
}

// normalize repairs what a model commonly gets wrong so the plan passes
// validation: unknown enum values, missing destination, runaway sizes.
func normalize(it *models.Itinerary, r ItineraryRequest) {
	it.ID = primitive.NilObjectID
	it.AIGenerated = true
	it.Status = models.ItineraryDraft
	it.StartDate = r.StartDate
	it.EndDate = nil
	if r.StartDate != nil {
		end := r.StartDate.AddDate(0, 0, r.Days-1)
		it.EndDate = &end
	}

	if it.Destination.City == "" {
		city, country, _ := strings.Cut(r.Destination, ",")
		it.Destination.City = strings.TrimSpace(city)
		if it.Destination.Country == "" {
			it.Destination.Country = strings.TrimSpace(country)
		}
	}
	if it.Destination.Country == "" {
		it.Destination.Country = "Unknown"
	}
	if len(it.Title) < 3 {
		it.Title = fmt.Sprintf("%d days in %s", r.Days, it.Destination.City)
	}
	it.Title = clip(it.Title, 100)
	it.Description = clip(it.Description, 2000)

	if len(it.Days) > r.Days {
		it.Days = it.Days[:r.Days]
	}
	for i := range it.Days {
		d := &it.Days[i]
		d.DayNumber = i + 1
		if r.StartDate != nil {
			date := r.StartDate.AddDate(0, 0, i)
			d.Date = &date
		}
		if len(d.Activities) > 30 {
			d.Activities = d.Activities[:30]
		}
		for j := range d.Activities {
			a := &d.Activities[j]
			a.Category = oneOf(a.Category, activityCategories, "other")
			a.Cost.Amount = max(a.Cost.Amount, 0)
			a.Cost.Currency = currency(a.Cost.Currency, r.Currency)
			a.Rating = 0
		}
	}
	it.Duration = models.Duration{Days: r.Days}

	it.Accommodation.Type = oneOf(it.Accommodation.Type, accommodationTypes, "")
	it.Accommodation.Cost.Currency = currency(it.Accommodation.Cost.Currency, r.Currency)
	for _, leg := range []*models.TransportLeg{&it.Transportation.Arrival, &it.Transportation.Local, &it.Transportation.Departure} {
		leg.Type = oneOf(leg.Type, transportTypes, "other")
		leg.Cost.Currency = currency(leg.Cost.Currency, r.Currency)
	}

	it.Budget.Currency = currency(it.Budget.Currency, r.Currency)
	it.Budget.Total = 0
	if r.Budget > 0 {
		it.Budget.Total = r.Budget
	}

	tags := it.Tags[:0:0]
	for _, t := range it.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && len(t) <= 30 && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	if len(tags) > 20 {
		tags = tags[:20]
	}
	it.Tags = tags
	it.Difficulty = oneOf(it.Difficulty, difficulties, "")
	it.Season = oneOf(it.Season, seasons, "")
	it.Images = []string{}
}

func oneOf(v string, allowed []string, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if slices.Contains(allowed, v) {
		return v
	}
	return fallback
}

func currency(v, fallback string) string {
	if len(v) == 3 {
		return strings.ToUpper(v)
	}
	return fallback
}

func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// Suggestions returns the model's JSON object verbatim after checking it parses.
func (c *Client) Suggestions(ctx context.Context, r SuggestionRequest) (json.RawMessage, error) {
	if r.Kind == "" {
		r.Kind = "activities"
	}
	if r.Count == 0 {
		r.Count = 5
	}
	prompt, err := renderSuggestionsPrompt(r)
	if err != nil {
		return nil, err
	}
	reply, err := c.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
