package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	utils "github.com/phillip/travel-planner-go/utils"
)

func SearchDestinations(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		if len(query) < 2 {
			utils.JSONError(c, http.StatusBadRequest, "Query must be at least 2 characters")
			return
		}

		data, err := env.Hotels.SearchDestinations(c.Request.Context(), query)
		if err != nil {
			utils.Fail(c, upstream("Hotel service", err))
			return
		}
		utils.JSONSuccess(c, http.StatusOK, data)
	}
}

func SearchHotels(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := c.Request.URL.Query()
		for _, required := range []string{"dest_id", "checkin_date", "checkout_date"} {
			if params.Get(required) == "" {
				utils.JSONError(c, http.StatusBadRequest, required+" is required")
				return
			}
		}

		data, err := env.Hotels.SearchHotels(c.Request.Context(), params)
		if err != nil {
			utils.Fail(c, upstream("Hotel service", err))
			return
		}
		utils.JSONSuccess(c, http.StatusOK, data)
	}
}

func GetHotel(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := env.Hotels.GetHotel(c.Request.Context(), c.Param("hotelId"), c.Request.URL.Query())
		if err != nil {
			utils.Fail(c, upstream("Hotel service", err))
			return
		}
		utils.JSONSuccess(c, http.StatusOK, data)
	}
}
