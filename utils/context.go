package utils

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/travel-planner-go/models"
)

// Keys the auth middleware stores the caller under.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// CurrentUser reads the authenticated caller. ok is false on anonymous
// requests or a malformed id.
func CurrentUser(c *gin.Context) (models.Caller, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(UserIDKey))
	if err != nil {
		return models.Caller{}, false
	}
	return models.Caller{ID: id, Role: models.Role(c.GetString(RoleKey))}, true
}

// OptionalUser is CurrentUser for endpoints that also serve anonymous callers.
func OptionalUser(c *gin.Context) *models.Caller {
	caller, ok := CurrentUser(c)
	if !ok {
		return nil
	}
	return &caller
}
