package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/middleware"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/response"
)

// CharacterHandler handles character API requests
type CharacterHandler struct {
	characterService *service.CharacterService
}

// NewCharacterHandler creates a new CharacterHandler
func NewCharacterHandler(characterService *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{
		characterService: characterService,
	}
}

// CreateCharacter creates a character and generates its image
// POST /api/characters
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req service.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please send a body")
		return
	}

	character, err := h.characterService.Create(c.Request.Context(), middleware.GetUser(c), &req)
	if err != nil {
		respondError(c, err, "failed to create character")
		return
	}

	response.Created(c, character.ToResponse())
}

// ListCharacters lists every character
// GET /api/characters1
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.characterService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list characters")
		return
	}

	result := make([]models.CharacterResponse, len(characters))
	for i := range characters {
		result[i] = characters[i].ToResponse()
	}
	response.Success(c, result)
}

// GetCharacter returns one character, repairing its image link if broken
// GET /api/characters/:id
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	characterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid character id")
		return
	}

	character, repaired, err := h.characterService.FetchWithRepair(c.Request.Context(), uint(characterID))
	if err != nil {
		respondError(c, err, "failed to get character")
		return
	}
	if repaired {
		middleware.Logger(c).Info("character image regenerated", "character_id", character.ID)
	}

	response.Success(c, character.ToResponse())
}

// UpdateCharacter overwrites the submitted character fields
// PUT /api/characters/:id
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	characterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid character id")
		return
	}

	var req service.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Please send a body")
		return
	}

	character, err := h.characterService.Update(c.Request.Context(), middleware.GetUser(c), uint(characterID), &req)
	if err != nil {
		respondError(c, err, "failed to update character")
		return
	}

	response.Success(c, character.ToResponse())
}

// DeleteCharacter deletes a character owned by the caller
// DELETE /api/characters/:id
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	characterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid character id")
		return
	}

	character, err := h.characterService.Delete(c.Request.Context(), middleware.GetUser(c), uint(characterID))
	if err != nil {
		respondError(c, err, "failed to delete character")
		return
	}

	response.Success(c, gin.H{"success": character.Name + " has been deleted"})
}

// HallOfFame returns the top characters by wins keyed by position,
// encoded in numeric position order
// GET /api/hof
func (h *CharacterHandler) HallOfFame(c *gin.Context) {
	board, err := h.characterService.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load hall of fame")
		return
	}

	response.Success(c, board)
}

// Champion returns the reigning champion, repairing its image link if broken
// GET /api/champ
func (h *CharacterHandler) Champion(c *gin.Context) {
	character, repaired, err := h.characterService.ChampionWithRepair(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get champion")
		return
	}
	if repaired {
		middleware.Logger(c).Info("champion image regenerated", "character_id", character.ID)
	}

	response.Success(c, character.ToResponse())
}

// RegisterRoutes registers character routes. updateAuth guards PUT and may
// be nil when updates are public.
func (h *CharacterHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, updateAuth gin.HandlerFunc) {
	rg.GET("/characters1", h.ListCharacters)
	rg.GET("/hof", h.HallOfFame)
	rg.GET("/champ", h.Champion)

	characters := rg.Group("/characters")
	characters.Use(middleware.AuditLoggerMiddleware())
	{
		characters.POST("", authMiddleware, h.CreateCharacter)
		characters.GET("/:id", h.GetCharacter)
		if updateAuth != nil {
			characters.PUT("/:id", updateAuth, h.UpdateCharacter)
		} else {
			characters.PUT("/:id", h.UpdateCharacter)
		}
		characters.DELETE("/:id", authMiddleware, h.DeleteCharacter)
	}
}
