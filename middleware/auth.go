package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

type identity struct {
	userID string
	role   string
}

var (
	errTokenFailed  = utils.Unauthorized("Not authorized, token failed")
	errUserNotFound = utils.Unauthorized("Not authorized, user not found")
	errDeactivated  = utils.Unauthorized("Account is deactivated")
)

// resolve checks the token and, when users is set, the stored account so
// deactivated users lose access immediately and role changes apply without a
// new token.
func resolve(c *gin.Context, secret string, users store.UserStore, now func() time.Time, tokenStr string) (identity, error) {
	clock := time.Now
	if now != nil {
		clock = now
	}
	claims, err := utils.ParseToken(secret, tokenStr, clock())
	if err != nil {
		return identity{}, errTokenFailed
	}
	if users == nil {
		return identity{userID: claims.UserID, role: claims.Role}, nil
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return identity{}, errTokenFailed
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := users.FindByID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return identity{}, errUserNotFound
	case err != nil:
		return identity{}, err
	case !user.IsActive:
		return identity{}, errDeactivated
	}
	return identity{userID: claims.UserID, role: string(user.Role)}, nil
}

// AuthMiddleware rejects requests without a valid token. now may be nil.
func AuthMiddleware(secret string, users store.UserStore, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		who, err := resolve(c, secret, users, now, tokenStr)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		c.Set(utils.UserIDKey, who.userID)
		c.Set(utils.RoleKey, who.role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token of an active account
// is sent. Anything else goes through as anonymous.
func OptionalAuth(secret string, users store.UserStore, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if who, err := resolve(c, secret, users, now, tokenStr); err == nil {
				c.Set(utils.UserIDKey, who.userID)
				c.Set(utils.RoleKey, who.role)
			}
		}
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := utils.CurrentUser(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		if !caller.IsAdmin() {
			utils.JSONError(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}
