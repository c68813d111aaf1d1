package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"wikirace/internal/middleware"
	"wikirace/internal/service"
)

// ProgressHandler 處理玩家進度、遊戲結果與路徑驗證
type ProgressHandler struct {
	roomService     *service.RoomService
	gameService     *service.GameService
	progressService *service.ProgressService
	validator       *service.PathValidator
	logger          *slog.Logger
}

func NewProgressHandler(roomService *service.RoomService, gameService *service.GameService, progressService *service.ProgressService, validator *service.PathValidator, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		roomService:     roomService,
		gameService:     gameService,
		progressService: progressService,
		validator:       validator,
		logger:          logger,
	}
}

type SubmitProgressInput struct {
	Name          string   `json:"name"`
	URLs          []string `json:"urls"`
	IsDone        bool     `json:"is_done"`
	IsSurrendered bool     `json:"is_surrendered"`
}

// SubmitProgress 提交或取消玩家的完成狀態
func (h *ProgressHandler) SubmitProgress(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var input SubmitProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := input.Name
	if name == "" {
		name = middleware.PlayerName(c)
	}

	finished, err := h.gameService.SubmitProgress(c.Request.Context(), service.ProgressSubmission{
		RoomID:        roomID,
		UserID:        middleware.PlayerID(c),
		Name:          name,
		URLs:          input.URLs,
		IsDone:        input.IsDone,
		IsSurrendered: input.IsSurrendered,
	})
	if err != nil {
		respondError(c, h.logger, err, "驗證失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "進度已更新", "game_finished": finished})
}

// ListProgress 列出房間內已提交的路徑，只有房間內的玩家可以查看
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	if _, ok := requireMember(c, h.roomService, h.logger, roomID); !ok {
		return
	}

	progresses, err := h.progressService.ListProgress(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "獲取進度失敗")
		return
	}

	c.JSON(http.StatusOK, progresses)
}

// GetResult 取得已存檔的遊戲結果，只有房間內的玩家可以查看
func (h *ProgressHandler) GetResult(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	if _, ok := requireMember(c, h.roomService, h.logger, roomID); !ok {
		return
	}

	result, err := h.progressService.GetResult(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "獲取結果失敗")
		return
	}

	c.JSON(http.StatusOK, result)
}

type ValidatePathInput struct {
	Start string   `json:"start" binding:"required,url"`
	URLs  []string `json:"urls"`
	Goal  string   `json:"goal" binding:"required,url"`
}

// ValidatePath 不經過房間，直接驗證一條路徑
func (h *ProgressHandler) ValidatePath(c *gin.Context) {
	var input ValidatePathInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.validator.ValidatePath(c.Request.Context(), input.Start, input.URLs, input.Goal); err != nil {
		respondError(c, h.logger, err, "驗證失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "路徑有效"})
}
