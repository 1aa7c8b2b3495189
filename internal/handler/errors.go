package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/gateway"
	"github.com/battle-arena/internal/middleware"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/errutil"
	"github.com/battle-arena/pkg/response"
)

// respondError maps a service or repository error onto a response.
// Anything unclassified is logged and reported as fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var validationErr *service.ValidationError
	var generationErr *gateway.GenerationError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Error())
	case errors.Is(err, service.ErrLockedOut):
		response.TooManyRequests(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, detail(err, service.ErrUnauthenticated))
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, detail(err, service.ErrPermissionDenied))
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, detail(err, service.ErrConflict))
	case errors.Is(err, service.ErrPreconditionFailed):
		response.PreconditionFailed(c, detail(err, service.ErrPreconditionFailed))
	case errors.As(err, &generationErr):
		errutil.LogError(middleware.Logger(c), "generative api call failed", err,
			"kind", string(generationErr.Kind),
			"status_code", generationErr.StatusCode,
		)
		response.BadGateway(c, "content generation failed, please try again")
	default:
		errutil.LogError(middleware.Logger(c), fallback, err)
		response.InternalError(c, fallback)
	}
}

// detail strips the "<kind>: " prefix that service errors carry
func detail(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}
