package models

import (
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewType string

const (
	ReviewItinerary   ReviewType = "itinerary"
	ReviewHotel       ReviewType = "hotel"
	ReviewActivity    ReviewType = "activity"
	ReviewDestination ReviewType = "destination"
	ReviewRestaurant  ReviewType = "restaurant"
)

// usesPlace lists review types whose target is an external place.
func (t ReviewType) usesPlace() bool {
	return t == ReviewHotel || t == ReviewActivity || t == ReviewRestaurant
}

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationFlagged  ModerationStatus = "flagged"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected, ModerationFlagged:
		return true
	}
	return false
}

type ItineraryRef struct {
	ItineraryID primitive.ObjectID `bson:"itinerary_id" json:"itinerary_id" validate:"required"`
}

// PlaceRef points at a hotel, activity or restaurant from a third-party catalog.
type PlaceRef struct {
	ExternalID string `bson:"external_id,omitempty" json:"external_id,omitempty" validate:"max=100"`
	Name       string `bson:"name" json:"name" validate:"required,max=200"`
	Location   string `bson:"location,omitempty" json:"location,omitempty" validate:"max=200"`
}

type AspectRatings struct {
	Value       *int `bson:"value,omitempty" json:"value,omitempty" validate:"omitempty,min=1,max=5"`
	Service     *int `bson:"service,omitempty" json:"service,omitempty" validate:"omitempty,min=1,max=5"`
	Cleanliness *int `bson:"cleanliness,omitempty" json:"cleanliness,omitempty" validate:"omitempty,min=1,max=5"`
	Location    *int `bson:"location,omitempty" json:"location,omitempty" validate:"omitempty,min=1,max=5"`
	Accuracy    *int `bson:"accuracy,omitempty" json:"accuracy,omitempty" validate:"omitempty,min=1,max=5"`
}

type Moderation struct {
	Status      ModerationStatus    `bson:"status" json:"status"`
	Reason      string              `bson:"reason,omitempty" json:"reason,omitempty"`
	ModeratedBy *primitive.ObjectID `bson:"moderated_by,omitempty" json:"moderated_by,omitempty"`
	ModeratedAt *time.Time          `bson:"moderated_at,omitempty" json:"moderated_at,omitempty"`
}

type ReviewComment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Content   string             `bson:"content" json:"content" validate:"required,max=500"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type HelpfulVote struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Helpful bool               `bson:"helpful" json:"helpful"`
	VotedAt time.Time          `bson:"voted_at" json:"voted_at"`
}

// ReviewStats are caches of collection lengths, never the source of truth.
type ReviewStats struct {
	Likes        int `bson:"likes" json:"likes"`
	Comments     int `bson:"comments" json:"comments"`
	HelpfulVotes int `bson:"helpful_votes" json:"helpful_votes"`
	Helpful      int `bson:"helpful" json:"helpful"`
}

// Review is feedback on exactly one target; which target field is set depends
// on ReviewType.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	ReviewType ReviewType         `bson:"review_type" json:"review_type" validate:"required,oneof=itinerary hotel activity destination restaurant"`

	Itinerary   *ItineraryRef `bson:"itinerary,omitempty" json:"itinerary,omitempty"`
	Place       *PlaceRef     `bson:"place,omitempty" json:"place,omitempty"`
	Destination *Destination  `bson:"destination,omitempty" json:"destination,omitempty"`

	Rating       int                  `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Aspects      AspectRatings        `bson:"aspects" json:"aspects"`
	Title        string               `bson:"title" json:"title" validate:"required,min=5,max=100"`
	Content      string               `bson:"content" json:"content" validate:"required,min=10,max=2000"`
	Pros         []string             `bson:"pros" json:"pros" validate:"max=10,dive,max=200"`
	Cons         []string             `bson:"cons" json:"cons" validate:"max=10,dive,max=200"`
	Images       []string             `bson:"images" json:"images" validate:"max=10"`
	VisitDate    *time.Time           `bson:"visit_date,omitempty" json:"visit_date,omitempty"`
	TravelerType string               `bson:"traveler_type,omitempty" json:"traveler_type,omitempty" validate:"omitempty,oneof=solo couple family friends business"`
	Moderation   Moderation           `bson:"moderation" json:"moderation"`
	Likes        []primitive.ObjectID `bson:"likes" json:"-"`
	Comments     []ReviewComment      `bson:"comments" json:"comments"`
	HelpfulVotes []HelpfulVote        `bson:"helpful_votes" json:"-"`
	Stats        ReviewStats          `bson:"stats" json:"stats"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// RecountStats rebuilds the engagement counters from their collections. It
// runs before every persist of a review.
func (r *Review) RecountStats() {
	r.Stats.Likes = len(r.Likes)
	r.Stats.Comments = len(r.Comments)
	r.Stats.HelpfulVotes = len(r.HelpfulVotes)
	helpful := 0
	for _, v := range r.HelpfulVotes {
		if v.Helpful {
			helpful++
		}
	}
	r.Stats.Helpful = helpful
}

// CastHelpfulVote records the user's vote, replacing any earlier vote of the
// same user.
func (r *Review) CastHelpfulVote(user primitive.ObjectID, helpful bool, now time.Time) {
	vote := HelpfulVote{UserID: user, Helpful: helpful, VotedAt: now}
	i := slices.IndexFunc(r.HelpfulVotes, func(v HelpfulVote) bool { return v.UserID == user })
	if i >= 0 {
		r.HelpfulVotes[i] = vote
	} else {
		r.HelpfulVotes = append(r.HelpfulVotes, vote)
	}
	r.RecountStats()
}

// ToggleLike adds or removes the user's like and reports the new state.
func (r *Review) ToggleLike(user primitive.ObjectID) bool {
	defer r.RecountStats()
	if i := slices.Index(r.Likes, user); i >= 0 {
		r.Likes = slices.Delete(r.Likes, i, i+1)
		return false
	}
	r.Likes = append(r.Likes, user)
	return true
}

func (r *Review) AddComment(user primitive.ObjectID, content string, now time.Time) (ReviewComment, error) {
	c := ReviewComment{ID: primitive.NewObjectID(), UserID: user, Content: content, CreatedAt: now}
	if errs := validateStruct(c); len(errs) > 0 {
		return ReviewComment{}, errs
	}
	r.Comments = append(r.Comments, c)
	r.RecountStats()
	return c, nil
}

func (r *Review) Moderate(status ModerationStatus, reason string, by primitive.ObjectID, now time.Time) error {
	if !status.Valid() {
		return ValidationErrors{{Field: "status", Message: "must be one of: pending, approved, rejected, flagged"}}
	}
	r.Moderation = Moderation{Status: status, Reason: reason, ModeratedBy: &by, ModeratedAt: &now}
	r.UpdatedAt = now
	return nil
}

// VisibleTo shows approved reviews to everyone and the rest only to the
// author and admins.
func (r *Review) VisibleTo(c *Caller) bool {
	if r.Moderation.Status == ModerationApproved {
		return true
	}
	return c != nil && c.CanManage(r.AuthorID)
}

// Validate checks field constraints and that exactly the target matching the
// review type is populated.
func (r *Review) Validate() error {
	errs := validateStruct(r)

	wantItinerary := r.ReviewType == ReviewItinerary
	wantPlace := r.ReviewType.usesPlace()
	wantDestination := r.ReviewType == ReviewDestination

	checkTarget := func(field string, present, want bool) {
		switch {
		case want && !present:
			errs.Add(field, fmt.Sprintf("is required for %s reviews", r.ReviewType))
		case !want && present:
			errs.Add(field, fmt.Sprintf("must be empty for %s reviews", r.ReviewType))
		}
	}
	checkTarget("itinerary", r.Itinerary != nil, wantItinerary)
	checkTarget("place", r.Place != nil, wantPlace)
	checkTarget("destination", r.Destination != nil, wantDestination)

	return errs.Err()
}

// ReviewPatch carries the author-editable fields.
type ReviewPatch struct {
	Rating       *int           `json:"rating"`
	Aspects      *AspectRatings `json:"aspects"`
	Title        *string        `json:"title"`
	Content      *string        `json:"content"`
	Pros         *[]string      `json:"pros"`
	Cons         *[]string      `json:"cons"`
	VisitDate    *Date          `json:"visit_date"`
	TravelerType *string        `json:"traveler_type"`
}

// Apply returns true when the overall rating changed.
func (r *Review) Apply(p ReviewPatch) (ratingChanged bool) {
	if p.Rating != nil {
		ratingChanged = *p.Rating != r.Rating
		r.Rating = *p.Rating
	}
	if p.Aspects != nil {
		r.Aspects = *p.Aspects
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.Pros != nil {
		r.Pros = *p.Pros
	}
	if p.Cons != nil {
		r.Cons = *p.Cons
	}
	if p.VisitDate != nil {
		r.VisitDate = p.VisitDate.Ptr()
	}
	if p.TravelerType != nil {
		r.TravelerType = *p.TravelerType
	}
	return ratingChanged
}
