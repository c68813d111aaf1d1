package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wikirace/internal/middleware"
	"wikirace/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler 處理房間即時推送的連接
type WebSocketHandler struct {
	wsService   *service.WebSocketService
	roomService *service.RoomService
	logger      *slog.Logger
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(wsService *service.WebSocketService, roomService *service.RoomService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		wsService:   wsService,
		roomService: roomService,
		logger:      logger,
	}
}

// HandleWebSocket 只允許房間內的玩家訂閱，連接建立後先推送目前的房間快照
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, ok := requireMember(c, h.roomService, h.logger, roomID)
	if !ok {
		return
	}

	// 升級失敗時 upgrader 已經回應了錯誤
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}

	h.wsService.HandleConnection(conn, roomID, middleware.PlayerID(c), room)
}

// OnlineCount 回傳目前訂閱房間推送的連接數量
func (h *WebSocketHandler) OnlineCount(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	if _, ok := requireMember(c, h.roomService, h.logger, roomID); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "online": h.wsService.GetRoomClients(roomID)})
}
