package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"wikirace/internal/middleware"
	"wikirace/internal/service"
)

// RoomHandler 處理與房間相關的請求
type RoomHandler struct {
	roomService *service.RoomService
	gameService *service.GameService
	logger      *slog.Logger
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService, gameService *service.GameService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		gameService: gameService,
		logger:      logger,
	}
}

// nameInput 是建立與加入房間時可選的顯示名稱，未提供時使用 token 中的名稱
type nameInput struct {
	Name string `json:"name"`
}

func displayName(c *gin.Context) string {
	var input nameInput
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&input)
	}
	if input.Name != "" {
		return input.Name
	}
	return middleware.PlayerName(c)
}

// CreateRoom 處理創建新房間的請求，呼叫者成為房主
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	roomID, err := h.roomService.CreateRoom(c.Request.Context(), middleware.PlayerID(c), displayName(c))
	if err != nil {
		respondError(c, h.logger, err, "創建房間失敗")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room_id": roomID})
}

// GetRoom 處理獲取房間訊息的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err, "獲取房間失敗")
		return
	}

	c.JSON(http.StatusOK, room)
}

// JoinRoom 處理加入房間的請求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	err := h.roomService.JoinRoom(c.Request.Context(), roomID, middleware.PlayerID(c), displayName(c))
	if err != nil {
		respondError(c, h.logger, err, "加入房間失敗")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room_id": roomID})
}

// StartGame 處理房主開始遊戲的請求
func (h *RoomHandler) StartGame(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	err := h.roomService.SetRoomStatus(c.Request.Context(), roomID, middleware.PlayerID(c), true, false)
	if err != nil {
		respondError(c, h.logger, err, "開始遊戲失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "遊戲開始"})
}

// EndGame 處理房主結束遊戲的請求，並存檔結果
func (h *RoomHandler) EndGame(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if err := h.gameService.EndGame(c.Request.Context(), roomID, middleware.PlayerID(c)); err != nil {
		respondError(c, h.logger, err, "結束遊戲失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "遊戲結束"})
}

type SetArticleInput struct {
	Target string `json:"target" binding:"required,oneof=start goal"`
	URL    string `json:"url" binding:"required,url"`
}

// SetArticle 設定起點或終點條目
func (h *RoomHandler) SetArticle(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var input SetArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.roomService.SetArticle(c.Request.Context(), roomID, input.URL, input.Target == "start")
	if err != nil {
		respondError(c, h.logger, err, "設定條目失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "條目已設定"})
}

// DestroyRoom 房主刪除房間
func (h *RoomHandler) DestroyRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	err := h.roomService.DestroyRoom(c.Request.Context(), roomID, middleware.PlayerID(c), false)
	if err != nil {
		respondError(c, h.logger, err, "刪除房間失敗")
		return
	}

	c.Status(http.StatusNoContent)
}
