package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	sum := sha1.Sum([]byte(id.Hex() + updatedAt.UTC().Format(time.RFC3339Nano)))
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

// NotModified sets the caching headers and answers 304 when the client's copy
// is current. It returns true when the response has been written.
func NotModified(c *gin.Context, id primitive.ObjectID, updatedAt time.Time) bool {
	etag := GenerateETag(id, updatedAt)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))
	return false
}
