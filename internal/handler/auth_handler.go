package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/middleware"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/response"
)

// AuthHandler handles token API requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueToken returns a bearer token for basic credentials
// POST /api/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	token, err := h.authService.IssueToken(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		respondError(c, err, "failed to issue token")
		return
	}

	response.Success(c, token)
}

// RevokeToken invalidates the presented bearer token
// DELETE /api/token
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	if err := h.authService.RevokeToken(c.Request.Context(), middleware.GetUser(c)); err != nil {
		respondError(c, err, "failed to revoke token")
		return
	}

	response.Success(c, gin.H{"success": "token revoked"})
}

// Me returns the caller's own profile
// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, middleware.GetUser(c).ToResponse())
}

// RegisterRoutes registers token routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, basicAuth, bearerAuth gin.HandlerFunc) {
	rg.POST("/token", basicAuth, h.IssueToken)
	rg.DELETE("/token", bearerAuth, h.RevokeToken)
	rg.GET("/me", bearerAuth, h.Me)
}
