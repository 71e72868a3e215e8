package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/travel-planner-go/models"
	"github.com/phillip/travel-planner-go/store"
)

// Context keys shared with the middleware package.
const (
	LoggerKey       = "logger"
	ExposeErrorsKey = "expose_errors"
)

// Response is the envelope of every JSON body.
type Response struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Pagination *store.PageInfo     `json:"pagination,omitempty"`
	Errors     []models.FieldError `json:"errors,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func JSONSuccess(c *gin.Context, code int, data any) {
	c.JSON(code, Response{Success: true, Data: data})
}

func JSONMessage(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}

func JSONPage(c *gin.Context, data any, info store.PageInfo) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &info})
}

func JSONError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Success: false, Message: message})
}

// Fail renders err with the status its type maps to. Unexpected errors are
// logged and only described to the client in development.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Validation failed",
			Errors:  verrs,
		})
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		JSONError(c, apiErr.Status, apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		JSONError(c, http.StatusNotFound, "Resource not found")
		return
	case errors.Is(err, store.ErrDuplicate):
		JSONError(c, http.StatusBadRequest, "Duplicate value")
		return
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNotModifiable),
		errors.Is(err, models.ErrAlreadyReviewed):
		JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	status, message := http.StatusInternalServerError, "Server error"
	if apiErr != nil {
		status, message = apiErr.Status, apiErr.Message
	}
	Logger(c).Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))

	body := Response{Success: false, Message: message}
	if c.GetBool(ExposeErrorsKey) {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// Logger returns the request-scoped logger installed by the logging
// middleware, or the default logger outside a request.
func Logger(c *gin.Context) *slog.Logger {
	if l, ok := c.Get(LoggerKey); ok {
		if logger, ok := l.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
