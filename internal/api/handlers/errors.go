package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wikirace/internal/middleware"
	"wikirace/internal/models"
	"wikirace/internal/service"
)

// statusFor 將領域錯誤對應到 HTTP 狀態碼，未分類的錯誤回傳 false
func statusFor(err error) (int, bool) {
	var pathErr *service.PathInvalidError
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrNotHost), errors.Is(err, service.ErrNotInRoom):
		return http.StatusForbidden, true
	case errors.Is(err, service.ErrRoomClosed):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrRoomIDExhausted),
		errors.Is(err, service.ErrArticlesNotSet),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrNotWikipedia),
		errors.Is(err, service.ErrTooManyHops),
		errors.As(err, &pathErr):
		return http.StatusBadRequest, true
	default:
		return 0, false
	}
}

// respondError 回應領域錯誤的訊息；其他錯誤記錄細節後以 fallback 訊息回應 400
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	if status, ok := statusFor(err); ok {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	logger.Error("request failed",
		"method", c.Request.Method,
		"route", c.FullPath(),
		"error", err,
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": fallback})
}

// parseRoomID 解析路徑中的房間 ID，失敗時直接回應 400
func parseRoomID(c *gin.Context) (int, bool) {
	roomID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return 0, false
	}
	return roomID, true
}

// requireMember 讀取房間並確認呼叫者是房間內的玩家，失敗時直接回應錯誤
func requireMember(c *gin.Context, rooms *service.RoomService, logger *slog.Logger, roomID int) (*models.Room, bool) {
	room, err := rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, logger, err, "獲取房間失敗")
		return nil, false
	}
	if _, joined := room.Users[middleware.PlayerID(c)]; !joined {
		respondError(c, logger, service.ErrNotInRoom, "")
		return nil, false
	}
	return room, true
}
