package utils

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParamID parses a hex ObjectID path parameter.
func ParamID(c *gin.Context, name, label string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, BadRequest("Invalid " + label + " id")
	}
	return oid, nil
}
