package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/travel-planner-go/integrations/ai"
	utils "github.com/phillip/travel-planner-go/utils"
)

// ---------------- GENERATE ----------------
func GenerateItinerary(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input struct {
			ai.ItineraryRequest
			Save bool `json:"save"`
		}
		if !bindJSON(c, &input) {
			return
		}

		it, err := env.AI.GenerateItinerary(c.Request.Context(), input.ItineraryRequest)
		if err != nil {
			utils.Fail(c, upstream("AI service", err))
			return
		}

		now := env.now()
		it.CreatorID = who.ID
		it.Likes = []primitive.ObjectID{}
		it.CreatedAt, it.UpdatedAt = now, now
		normalizeItinerary(it)
		it.RecalculateBudget()
		it.DeriveDuration()

		if !input.Save {
			utils.JSONSuccess(c, http.StatusOK, it)
			return
		}

		if err := it.Validate(); err != nil {
			utils.Fail(c, utils.Internal("Generated itinerary is invalid", err))
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		if err := env.Itineraries.Create(ctx, it); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusCreated, "Itinerary generated and saved", it)
	}
}

// ---------------- SUGGESTIONS ----------------
func Suggestions(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ai.SuggestionRequest
		if !bindJSON(c, &input) {
			return
		}

		data, err := env.AI.Suggestions(c.Request.Context(), input)
		if err != nil {
			utils.Fail(c, upstream("AI service", err))
			return
		}
		utils.JSONSuccess(c, http.StatusOK, data)
	}
}
