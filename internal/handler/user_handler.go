package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/middleware"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/response"
)

// UserHandler handles user API requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register handles user registration
// POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please send a JSON body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "failed to register user")
		return
	}

	response.Created(c, user.ToResponse())
}

// UpdateUser updates the caller's own record
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please send a JSON body")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.GetUser(c), uint(userID), &req)
	if err != nil {
		respondError(c, err, "failed to update user")
		return
	}

	response.Success(c, user.ToResponse())
}

// DeleteUser deletes the caller's own record and characters
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.userService.Delete(c.Request.Context(), middleware.GetUser(c), uint(userID))
	if err != nil {
		respondError(c, err, "failed to delete user")
		return
	}

	response.Success(c, gin.H{"success": user.Username + " has been deleted"})
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(middleware.AuditLoggerMiddleware())
	{
		users.POST("", h.Register)
		users.PUT("/:id", authMiddleware, h.UpdateUser)
		users.DELETE("/:id", authMiddleware, h.DeleteUser)
	}
}
