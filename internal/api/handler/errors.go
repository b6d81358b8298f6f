package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/vendorseo/internal/api/middleware"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/service"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Server errors are logged and prefixed
// with action so clients see what failed.
func respondError(c *gin.Context, action string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		middleware.GetLogger(c).WithError(err).Errorf("%s failed", action)
		msg = action + " failed: " + msg
	}
	c.JSON(status, gin.H{"error": msg})
}
