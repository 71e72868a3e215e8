package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

// ---------------- PROFILE ----------------
func UpdateProfile(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var patch models.ProfilePatch
		if !bindJSON(c, &patch) {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		user.Apply(patch)
		if err := user.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		user.UpdatedAt = env.now()
		if err := env.Users.Save(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Profile updated successfully", user)
	}
}

func UpdatePreferences(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var prefs models.Preferences
		if !bindJSON(c, &prefs) {
			return
		}
		if prefs.Interests == nil {
			prefs.Interests = []string{}
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		user.Preferences = prefs
		if err := user.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		user.UpdatedAt = env.now()
		if err := env.Users.Save(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Preferences updated successfully", user.Preferences)
	}
}

// ---------------- AVATAR ----------------
func UploadAvatar(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "No image file provided")
			return
		}

		urls, err := utils.UploadFiles(c.Request.Context(), env.Media, []*multipart.FileHeader{fileHeader}, utils.FolderAvatars)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		// The store budget starts after the upload.
		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			env.deleteImages(c, urls)
			utils.Fail(c, err)
			return
		}

		previous := user.Avatar
		user.Avatar = urls[0]
		user.UpdatedAt = env.now()
		if err := env.Users.Save(ctx, user); err != nil {
			env.deleteImages(c, urls)
			utils.Fail(c, err)
			return
		}
		if previous != "" {
			env.deleteImages(c, []string{previous})
		}
		utils.JSONMessage(c, http.StatusOK, "Avatar updated successfully", gin.H{"avatar": user.Avatar})
	}
}

// ---------------- STATS ----------------
func UserStats(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		bookings, err := env.Bookings.Stats(ctx, who.ID, env.now())
		if err != nil {
			utils.Fail(c, err)
			return
		}
		itineraries, err := env.Itineraries.Stats(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		utils.JSONSuccess(c, http.StatusOK, models.UserDashboard{
			Profile:     user.Stats,
			Bookings:    bookings,
			Itineraries: itineraries,
		})
	}
}

// ---------------- DELETE ACCOUNT ----------------
func DeleteAccount(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		user.Deactivate(env.now())
		if err := env.Users.Save(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Account deleted successfully", nil)
	}
}

// ---------------- ADMIN LIST ----------------
func ListUsers(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter store.UserFilter
		if !bindQuery(c, &filter) {
			return
		}
		q := filter.Query()

		ctx, cancel := env.timeout(c)
		defer cancel()

		users, total, err := env.Users.List(ctx, q)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONPage(c, users, q.Page.Info(total))
	}
}

// deleteImages removes images best-effort and only logs failures.
func (e *Env) deleteImages(c *gin.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	logger := utils.Logger(c)
	ctx, cancel := e.timeout(c)
	defer cancel()
	utils.DeleteImages(ctx, e.Media, urls, func(u string, err error) {
		logger.Warn("image cleanup failed", "url", u, "error", err)
	})
}
