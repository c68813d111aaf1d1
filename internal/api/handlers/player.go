package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wikirace/internal/utils"
)

// PlayerHandler 發放玩家身分
type PlayerHandler struct {
	tokens *utils.TokenManager
	logger *slog.Logger
}

func NewPlayerHandler(tokens *utils.TokenManager, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{tokens: tokens, logger: logger}
}

type CreatePlayerInput struct {
	Name string `json:"name" binding:"required"`
}

// CreatePlayer 產生新的玩家 UUID 與對應的 token
func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	var input CreatePlayerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID := uuid.NewString()
	token, err := h.tokens.GenerateToken(playerID, input.Name)
	if err != nil {
		h.logger.Error("generate token failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "獲取token失敗"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"uuid": playerID, "name": input.Name, "token": token})
}
