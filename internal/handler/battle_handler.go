package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/pkg/response"
)

// BattleHandler handles battle narrative requests
type BattleHandler struct {
	battleService *service.BattleService
}

// NewBattleHandler creates a new BattleHandler
func NewBattleHandler(battleService *service.BattleService) *BattleHandler {
	return &BattleHandler{
		battleService: battleService,
	}
}

// Battle writes both outcomes of a fight between two characters
// GET /api/battle/:champId/:challId
func (h *BattleHandler) Battle(c *gin.Context) {
	champID, err := strconv.ParseUint(c.Param("champId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid champion id")
		return
	}
	challID, err := strconv.ParseUint(c.Param("challId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid challenger id")
		return
	}

	stories, err := h.battleService.Narrate(c.Request.Context(), uint(champID), uint(challID))
	if err != nil {
		respondError(c, err, "failed to generate battle")
		return
	}

	response.Success(c, stories)
}

// RegisterRoutes registers battle routes
func (h *BattleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/battle/:champId/:challId", h.Battle)
}
