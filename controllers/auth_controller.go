package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (e *Env) issueToken(u *models.User) (string, error) {
	token, err := utils.GenerateToken(e.Config.JWTSecret, u.ID.Hex(), string(u.Role), e.Config.JWTExpiry, e.now())
	if err != nil {
		return "", utils.Internal("Could not issue token", err)
	}
	return token, nil
}

// ---------------- REGISTER ----------------
func Register(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required,min=2,max=50"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=6,max=128"`
		}
		if !bindJSON(c, &input) {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		email := strings.ToLower(strings.TrimSpace(input.Email))
		if _, err := env.Users.FindByEmail(ctx, email); err == nil {
			utils.JSONError(c, http.StatusBadRequest, "User already exists")
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			utils.Fail(c, err)
			return
		}

		now := env.now()
		user := &models.User{
			Name:        strings.TrimSpace(input.Name),
			Email:       email,
			Role:        models.RoleUser,
			Preferences: models.Preferences{Interests: []string{}},
			IsActive:    true,
			LastLogin:   &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := user.SetPassword(input.Password); err != nil {
			utils.Fail(c, err)
			return
		}
		if err := user.Validate(); err != nil {
			utils.Fail(c, err)
			return
		}
		if err := env.Users.Create(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}

		token, err := env.issueToken(user)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusCreated, "User registered successfully", authResponse{User: user, Token: token})
	}
}

// ---------------- LOGIN ----------------
func Login(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if !bindJSON(c, &input) {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByEmail(ctx, input.Email)
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if !user.CheckPassword(input.Password) {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !user.IsActive {
			utils.JSONError(c, http.StatusUnauthorized, "Account is deactivated")
			return
		}

		now := env.now()
		user.LastLogin = &now
		if err := env.Users.Save(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}

		token, err := env.issueToken(user)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Login successful", authResponse{User: user, Token: token})
	}
}

// ---------------- ME ----------------
func Me(env *Env) gin.HandlerFunc {
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
		utils.JSONSuccess(c, http.StatusOK, user)
	}
}

// ---------------- CHANGE PASSWORD ----------------
func ChangePassword(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}

		var input struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required,min=6,max=128"`
		}
		if !bindJSON(c, &input) {
			return
		}

		ctx, cancel := env.timeout(c)
		defer cancel()

		user, err := env.Users.FindByID(ctx, who.ID)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if !user.CheckPassword(input.CurrentPassword) {
			utils.JSONError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		if err := user.SetPassword(input.NewPassword); err != nil {
			utils.Fail(c, err)
			return
		}
		user.UpdatedAt = env.now()
		if err := env.Users.Save(ctx, user); err != nil {
			utils.Fail(c, err)
			return
		}
		utils.JSONMessage(c, http.StatusOK, "Password updated successfully", nil)
	}
}
