package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/errutil"
	"github.com/battle-arena/pkg/response"
)

const (
	// ContextKeyUser is the key for the authenticated *models.User in gin context
	ContextKeyUser = "user"
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
)

// BearerAuthMiddleware requires a live bearer token
func BearerAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		user, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				response.Unauthorized(c, "invalid or expired token")
			} else {
				errutil.LogError(Logger(c), "token validation failed", err)
				response.InternalError(c, "failed to validate token")
			}
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// BasicAuthMiddleware requires a valid username and password
func BasicAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="arena"`)
			response.Error(c, http.StatusUnauthorized, "missing basic credentials")
			c.Abort()
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrLockedOut):
				response.TooManyRequests(c, err.Error())
			case errors.Is(err, service.ErrUnauthenticated):
				c.Header("WWW-Authenticate", `Basic realm="arena"`)
				response.Error(c, http.StatusUnauthorized, "invalid username or password")
			default:
				errutil.LogError(Logger(c), "authentication failed", err, "username", username)
				response.InternalError(c, "failed to authenticate")
			}
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID)
}

// GetUser gets the authenticated user from the gin context, nil when anonymous
func GetUser(c *gin.Context) *models.User {
	user, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	return user.(*models.User)
}

// GetUserID gets the user ID from the gin context
func GetUserID(c *gin.Context) uint {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(uint)
}
