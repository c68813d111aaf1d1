package service

import (
	"context"
	"log/slog"

	"wikirace/internal/models"
)

// ProgressSubmission 是玩家完成或取消完成時提交的內容
type ProgressSubmission struct {
	RoomID        int
	UserID        string
	Name          string
	URLs          []string
	IsDone        bool
	IsSurrendered bool
}

// GameService 串接房間狀態、進度記錄與路徑驗證，處理需要跨多個元件的流程
type GameService struct {
	rooms     *RoomService
	progress  *ProgressService
	validator *PathValidator
	logger    *slog.Logger
}

func NewGameService(rooms *RoomService, progress *ProgressService, validator *PathValidator, logger *slog.Logger) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		rooms:     rooms,
		progress:  progress,
		validator: validator,
		logger:    logger,
	}
}

// SubmitProgress 處理玩家的完成（或取消完成）。
// 完成時先驗證路徑，再更新玩家狀態與記錄；若所有玩家都已完成，存檔結果、清除進度並強制結束房間。
// 回傳值表示這次提交是否讓遊戲結束。
func (s *GameService) SubmitProgress(ctx context.Context, sub ProgressSubmission) (bool, error) {
	if !sub.IsDone {
		if err := s.rooms.UpdatePlayerProgress(ctx, sub.RoomID, sub.UserID, false, false); err != nil {
			return false, err
		}
		return false, s.progress.CancelProgress(ctx, sub.RoomID, sub.UserID)
	}

	if sub.UserID == "" || sub.Name == "" {
		return false, ErrInvalidSubmission
	}

	room, err := s.rooms.GetRoom(ctx, sub.RoomID)
	if err != nil {
		return false, err
	}
	if s.rooms.Strict() && room.Status == models.RoomStatusEnded {
		return false, ErrRoomClosed
	}
	if _, ok := room.Users[sub.UserID]; !ok {
		return false, ErrNotInRoom
	}

	surrendered := sub.IsSurrendered && s.rooms.Strict()
	if !surrendered {
		if room.Start == "" || room.Goal == "" {
			return false, ErrArticlesNotSet
		}
		if err := s.validator.ValidatePath(ctx, room.Start, sub.URLs, room.Goal); err != nil {
			return false, err
		}
	}

	if err := s.rooms.UpdatePlayerProgress(ctx, sub.RoomID, sub.UserID, true, surrendered); err != nil {
		return false, err
	}
	if err := s.progress.RecordProgress(ctx, sub.RoomID, sub.UserID, sub.Name, sub.URLs, surrendered); err != nil {
		return false, err
	}

	users, err := s.rooms.GetUsers(ctx, sub.RoomID)
	if err != nil {
		return false, err
	}
	// 沒有玩家時雖然 AllDone 為 true，但不會自動結束
	if len(users) == 0 || !models.AllDone(users) {
		return false, nil
	}

	s.logger.Info("all players done", "room_id", sub.RoomID, "players", len(users))
	if err := s.conclude(ctx, sub.RoomID); err != nil {
		return false, err
	}
	if err := s.rooms.SetRoomStatus(ctx, sub.RoomID, sub.UserID, false, true); err != nil {
		return false, err
	}
	return true, nil
}

// EndGame 由房主結束遊戲並存檔結果。已結束的房間回傳 ErrRoomClosed，避免以清空後的進度覆寫結果。
func (s *GameService) EndGame(ctx context.Context, roomID int, requesterID string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status == models.RoomStatusEnded {
		return ErrRoomClosed
	}

	if err := s.rooms.SetRoomStatus(ctx, roomID, requesterID, false, false); err != nil {
		return err
	}
	return s.conclude(ctx, roomID)
}

func (s *GameService) conclude(ctx context.Context, roomID int) error {
	if _, err := s.progress.ArchiveResult(ctx, roomID); err != nil {
		return err
	}
	return s.progress.ClearProgress(ctx, roomID)
}
