package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	utils "github.com/phillip/travel-planner-go/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an id, exposes a request-scoped
// logger to the handlers and logs one line when the request completes.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		reqLogger := logger.With(slog.String("request_id", reqID))
		c.Set(utils.LoggerKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		reqLogger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		)
	}
}

// ErrorDetail decides whether 5xx responses carry the underlying error text.
func ErrorDetail(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ExposeErrorsKey, expose)
		c.Next()
	}
}
