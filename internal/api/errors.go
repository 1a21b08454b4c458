package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/cache"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/flags"
	"github.com/fouta-app/functions/internal/jobs"
)

// Error represents an API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// toError maps domain errors to HTTP statuses
func toError(err error) *Error {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, jobs.ErrUnknownJob), errors.Is(err, docstore.ErrNotFound), errors.Is(err, flags.ErrUnknownFlag):
		return NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, cache.ErrCacheDisabled):
		return NewError(http.StatusServiceUnavailable, "redis is not configured")
	case errors.Is(err, jobs.ErrJobRunning):
		return NewError(http.StatusConflict, err.Error())
	default:
		return NewError(http.StatusInternalServerError, err.Error())
	}
}

func (r *Router) sendError(c *gin.Context, err error) {
	apiErr := toError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		r.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(apiErr.Code, gin.H{"error": apiErr})
}
