package controllers

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

const maxItineraryImages = 10

// markLiked fills the per-caller is_liked flag.
func markLiked(items []models.Itinerary, who *models.Caller) {
	if who == nil {
		return
	}
	for i := range items {
		items[i].IsLiked = slices.Contains(items[i].Likes, who.ID)
	}
}

// loadVisibleItinerary answers 404 for missing plans and for drafts the
// caller may not see.
func (e *Env) loadVisibleItinerary(c *gin.Context, who *models.Caller) (*models.Itinerary, bool) {
	id, err := utils.ParamID(c, "id", "itinerary")
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}

	ctx, cancel := e.timeout(c)
	defer cancel()

	it, err := e.Itineraries.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !it.VisibleTo(who)) {
		utils.Fail(c, errItineraryNotFound)
		return nil, false
	}
	if err != nil {
		utils.Fail(c, err)
		return nil, false
	}
	return it, true
}

// loadOwnedItinerary additionally requires the caller to own the plan.
func (e *Env) loadOwnedItinerary(c *gin.Context, who models.Caller) (*models.Itinerary, bool) {
	it, ok := e.loadVisibleItinerary(c, &who)
	if !ok {
		return nil, false
	}
	if !who.CanManage(it.CreatorID) {
		utils.Fail(c, utils.Forbidden("Not authorized to modify this itinerary"))
		return nil, false
	}
	return it, true
}

// ---------------- LIST ----------------
func ListItineraries(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter store.ItineraryFilter
		if !bindQuery(c, &filter) {
			return
		}
		who := utils.OptionalUser(c)
		// Only admins may browse other statuses.
		if who == nil || !who.IsAdmin() || filter.Status == "" {
			filter.Status = string(models.ItineraryPublic)
		}
		q := filter.Query()

		ctx, cancel := env.timeout(c)
		defer cancel()

		items, total, err := env.Itineraries.List(ctx, q)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		markLiked(items, who)
		utils.JSONPage(c, items, q.Page.Info(total))
	}
}

func MyItineraries(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var filter store.ItineraryFilter
		if !bindQuery(c, &filter) {
			return
		}
		filter.Creator = &who.ID
		q := filter.Query()

		ctx, cancel := env.timeout(c)
		defer cancel()

		items, total, err := env.Itineraries.List(ctx, q)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		markLiked(items, &who)
		utils.JSONPage(c, items, q.Page.Info(total))
	}
}

// ---------------- GET ----------------
func GetItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := utils.OptionalUser(c)
		it, ok := env.loadVisibleItinerary(c, who)
		if !ok {
			return
		}

		// --- Count the view unless the creator is looking ---
		if who == nil || who.ID != it.CreatorID {
			ctx, cancel := env.timeout(c)
			err := env.Itineraries.IncrementViews(ctx, it.ID)
			cancel()
			if err != nil {
				utils.Logger(c).Warn("view count failed", "itinerary", it.ID.Hex(), "error", err)
			} else {
				it.Stats.Views++
			}
		}

		if utils.NotModified(c, it.ID, it.UpdatedAt) {
			return
		}
		if who != nil {
			it.IsLiked = slices.Contains(it.Likes, who.ID)
		}
		utils.JSONSuccess(c, http.StatusOK, it)
	}
}

// ---------------- CREATE ----------------
func CreateItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var it models.Itinerary
		if !bindJSON(c, &it) {
			return
		}

		// --- System-owned fields ---
		now := env.now()
		it.ID = primitive.NilObjectID
		it.CreatorID = who.ID
		it.Likes = []primitive.ObjectID{}
		it.Stats = models.Engagement{}
		it.Rating = models.Rating{}
		it.AIGenerated = false
		it.CreatedAt, it.UpdatedAt = now, now
		if it.Status == "" {
			it.Status = models.ItineraryDraft
		}
		normalizeItinerary(&it)

		it.RecalculateBudget()
		it.DeriveDuration()
		if err := it.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Create(ctx, &it); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusCreated, "Itinerary created successfully", it)
	}
}

// normalizeItinerary replaces nil collections so documents never store null.
func normalizeItinerary(it *models.Itinerary) {
	if it.Days == nil {
		it.Days = []models.Day{}
	}
	for i := range it.Days {
		if it.Days[i].Activities == nil {
			it.Days[i].Activities = []models.Activity{}
		}
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	if it.Likes == nil {
		it.Likes = []primitive.ObjectID{}
	}
}

// ---------------- UPDATE ----------------
func UpdateItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		it, ok := env.loadOwnedItinerary(c, who)
		if !ok {
			return
		}

		var patch models.ItineraryPatch
		if !bindJSON(c, &patch) {
			return
		}

		changes := it.Apply(patch)
		if !changes.Any {
			utils.JSONError(c, http.StatusBadRequest, "No fields to update")
			return
		}
		normalizeItinerary(it)
		if changes.Costs || patch.Budget != nil {
			it.RecalculateBudget()
		}
		if changes.Duration {
			// New dates without an explicit length re-derive the length.
			if patch.Duration == nil && it.StartDate != nil && it.EndDate != nil {
				it.Duration.Days = 0
			}
			it.DeriveDuration()
		}
		if err := it.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		it.UpdatedAt = env.now()

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Save(ctx, it); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Itinerary updated successfully", it)
	}
}

// ---------------- DELETE ----------------
func DeleteItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		it, ok := env.loadOwnedItinerary(c, who)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Delete(ctx, it.ID); err != nil {
			utils.Fail(c, err)
			return
		}
		env.deleteImages(c, it.Images)
		utils.JSONMessage(c, http.StatusOK, "Itinerary deleted successfully", nil)
	}
}

// ---------------- LIKE ----------------
func LikeItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		it, ok := env.loadVisibleItinerary(c, &who)
		if !ok {
			return
		}

		liked := it.ToggleLike(who.ID)

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Save(ctx, it); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, gin.H{"liked": liked, "likes": it.Stats.Likes})
	}
}

// ---------------- IMAGES ----------------
func UploadItineraryImages(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		it, ok := env.loadOwnedItinerary(c, who)
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
		if len(it.Images)+len(files) > maxItineraryImages {
			utils.JSONError(c, http.StatusBadRequest, "An itinerary can hold at most 10 images")
			return
		}

		urls, err := utils.UploadFiles(c.Request.Context(), env.Media, files, utils.FolderItineraries)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		it.Images = append(it.Images, urls...)
		it.UpdatedAt = env.now()

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Save(ctx, it); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Images uploaded successfully", gin.H{"images": it.Images})
	}
}

// ---------------- DUPLICATE ----------------
func DuplicateItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		it, ok := env.loadVisibleItinerary(c, &who)
		if !ok {
			return
		}

		cp := it.Duplicate(who.ID, env.now())

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Create(ctx, cp); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusCreated, "Itinerary duplicated successfully", cp)
	}
}
