package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

const maxReviewImages = 10

func (e *Env) loadVisibleReview(c *gin.Context, who *models.Caller) (*models.Review, bool) {
	id, err := utils.ParamID(c, "id", "review")
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}

	ctx, cancel := e.timeout(c)
	defer cancel()

	r, err := e.Reviews.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !r.VisibleTo(who)) {
		utils.Fail(c, errReviewNotFound)
		return nil, false
	}
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}
	return r, true
}

func (e *Env) loadOwnedReview(c *gin.Context, who models.Caller) (*models.Review, bool) {
	r, ok := e.loadVisibleReview(c, &who)
	if !ok {
		return nil, false
	}
	if !who.CanManage(r.AuthorID) {
		utils.Fail(c, utils.Forbidden("Not authorized to modify this review"))
		return nil, false
	}
	return r, true
}

// refreshRating recomputes the cached rating of the itinerary a review is
// about. Failures are logged; the review write already succeeded.
func (e *Env) refreshRating(c *gin.Context, r *models.Review) {
	if r.Itinerary == nil {
		return
	}
	ctx, cancel := e.timeout(c)
	defer cancel()

	id := r.Itinerary.ItineraryID
	rating, err := e.Reviews.ItineraryRating(ctx, id)
	if err == nil {
		err = e.Itineraries.SetRating(ctx, id, rating)
	}
	if err != nil {
		utils.Logger(c).Warn("itinerary rating refresh failed", "itinerary", id.Hex(), "error", err)
	}
}

func (e *Env) adjustReviewCount(c *gin.Context, author primitive.ObjectID, delta int) {
	ctx, cancel := e.timeout(c)
	defer cancel()
	if err := e.Users.IncrementStat(ctx, author, store.UserStatReviewsCount, delta); err != nil {
		utils.Logger(c).Warn("review counter update failed", "user", author.Hex(), "error", err)
	}
}

// ---------------- LIST ----------------
func ListReviews(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter store.ReviewFilter
		if !bindQuery(c, &filter) {
			return
		}
		who := utils.OptionalUser(c)
		filter.IncludeHidden = who != nil && who.IsAdmin()
		q := filter.Query()

		ctx, cancel := env.timeout(c)
		defer cancel()

		items, total, err := env.Reviews.List(ctx, q)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONPage(c, items, q.Page.Info(total))
	}
}

// ---------------- GET ----------------
func GetReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := env.loadVisibleReview(c, utils.OptionalUser(c))
		if !ok {
			return
		}
		if utils.NotModified(c, r.ID, r.UpdatedAt) {
			return
		}
		utils.JSONSuccess(c, http.StatusOK, r)
	}
}

// ---------------- CREATE ----------------
type createReviewInput struct {
	ReviewType   models.ReviewType    `json:"review_type" binding:"required"`
	Itinerary    *models.ItineraryRef `json:"itinerary"`
	Place        *models.PlaceRef     `json:"place"`
	Destination  *models.Destination  `json:"destination"`
	Rating       int                  `json:"rating" binding:"required"`
	Aspects      models.AspectRatings `json:"aspects"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Pros         []string             `json:"pros"`
	Cons         []string             `json:"cons"`
	Images       []string             `json:"images"`
	VisitDate    *models.Date         `json:"visit_date"`
	TravelerType string               `json:"traveler_type"`
}

func CreateReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input createReviewInput
		if !bindJSON(c, &input) {
			return
		}

		now := env.now()
		r := &models.Review{
			AuthorID:     who.ID,
			ReviewType:   input.ReviewType,
			Itinerary:    input.Itinerary,
			Place:        input.Place,
			Destination:  input.Destination,
			Rating:       input.Rating,
			Aspects:      input.Aspects,
			Title:        input.Title,
			Content:      input.Content,
			Pros:         nonNil(input.Pros),
			Cons:         nonNil(input.Cons),
			Images:       nonNil(input.Images),
			VisitDate:    input.VisitDate.Ptr(),
			TravelerType: input.TravelerType,
			Moderation:   models.Moderation{Status: models.ModerationApproved},
			Likes:        []primitive.ObjectID{},
			Comments:     []models.ReviewComment{},
			HelpfulVotes: []models.HelpfulVote{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := r.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		// --- Itinerary reviews need a plan the author can see ---
		if r.Itinerary != nil {
			it, err := env.Itineraries.FindByID(ctx, r.Itinerary.ItineraryID)
			if errors.Is(err, store.ErrNotFound) || (err == nil && !it.VisibleTo(&who)) {
				utils.Fail(c, errItineraryNotFound)
				return
			}
			if err != nil {
				utils.Fail(c, err)
				return
			}
		}

		exists, err := env.Reviews.Exists(ctx, r)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if exists {
			utils.Fail(c, models.ErrAlreadyReviewed)
			return
		}

		r.RecountStats()
		if err := env.Reviews.Create(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}

		env.adjustReviewCount(c, who.ID, 1)
		env.refreshRating(c, r)
		utils.JSONMessage(c, http.StatusCreated, "Review created successfully", r)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ---------------- UPDATE ----------------
func UpdateReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		r, ok := env.loadOwnedReview(c, who)
		if !ok {
			return
		}

		var patch models.ReviewPatch
		if !bindJSON(c, &patch) {
			return
		}

		ratingChanged := r.Apply(patch)
		if err := r.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		r.UpdatedAt = env.now()
		r.RecountStats()

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		if ratingChanged {
			env.refreshRating(c, r)
		}
		utils.JSONMessage(c, http.StatusOK, "Review updated successfully", r)
	}
}

// ---------------- DELETE ----------------
func DeleteReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		r, ok := env.loadOwnedReview(c, who)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Delete(ctx, r.ID); err != nil {
			utils.Fail(c, err)
			return
		}

		env.adjustReviewCount(c, r.AuthorID, -1)
		env.refreshRating(c, r)
		env.deleteImages(c, r.Images)
		utils.JSONMessage(c, http.StatusOK, "Review deleted successfully", nil)
	}
}

// ---------------- ENGAGEMENT ----------------
func LikeReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		r, ok := env.loadVisibleReview(c, &who)
		if !ok {
			return
		}

		liked := r.ToggleLike(who.ID)

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, gin.H{"liked": liked, "likes": r.Stats.Likes})
	}
}

func MarkReviewHelpful(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input struct {
			Helpful *bool `json:"helpful" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}

		r, ok := env.loadVisibleReview(c, &who)
		if !ok {
			return
		}
		if r.AuthorID == who.ID {
			utils.JSONError(c, http.StatusBadRequest, "You cannot vote on your own review")
			return
		}

		r.CastHelpfulVote(who.ID, *input.Helpful, env.now())

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, r.Stats)
	}
}

func AddReviewComment(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input struct {
			Content string `json:"content" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}

		r, ok := env.loadVisibleReview(c, &who)
		if !ok {
			return
		}

		comment, err := r.AddComment(who.ID, input.Content, env.now())
		if err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusCreated, "Comment added successfully", comment)
	}
}

// ---------------- IMAGES ----------------
func UploadReviewImages(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		r, ok := env.loadOwnedReview(c, who)
		if !ok {
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid form data")
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			utils.JSONError(c, http.StatusBadRequest, "No images provided")
			return
		}
		if len(r.Images)+len(files) > maxReviewImages {
			utils.JSONError(c, http.StatusBadRequest, "A review can hold at most 10 images")
			return
		}

		urls, err := utils.UploadFiles(c.Request.Context(), env.Media, files, utils.FolderReviews)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		r.Images = append(r.Images, urls...)
		r.UpdatedAt = env.now()

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Images uploaded successfully", gin.H{"images": r.Images})
	}
}

// ---------------- MODERATE (admin) ----------------
func ModerateReview(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input struct {
			Status models.ModerationStatus `json:"status" binding:"required"`
			Reason string                  `json:"reason" binding:"max=500"`
		}
		if !bindJSON(c, &input) {
			return
		}

		r, ok := env.loadVisibleReview(c, &who)
		if !ok {
			return
		}
		if err := r.Moderate(input.Status, input.Reason, who.ID, env.now()); err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Reviews.Save(ctx, r); err != nil {
			utils.Fail(c, err)
			return
		}
		env.refreshRating(c, r)
		utils.JSONMessage(c, http.StatusOK, "Review moderated", r)
	}
}
