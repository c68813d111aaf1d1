package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wikirace/internal/metrics"
	"wikirace/internal/models"
	"wikirace/internal/repository"
)

// roomReader 是 ProgressService 讀取房間所需的能力
type roomReader interface {
	GetRoom(ctx context.Context, roomID int) (*models.Room, error)
}

// ProgressService 記錄玩家提交的路徑，並在遊戲結束時將結果存檔
type ProgressService struct {
	progressRepo repository.ProgressRepository
	resultRepo   repository.ResultRepository
	rooms        roomReader
	logger       *slog.Logger
	now          func() time.Time
}

func NewProgressService(progressRepo repository.ProgressRepository, resultRepo repository.ResultRepository, rooms roomReader, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		progressRepo: progressRepo,
		resultRepo:   resultRepo,
		rooms:        rooms,
		logger:       logger,
		now:          time.Now,
	}
}

// RecordProgress 以完整覆寫的方式儲存玩家的路徑
func (s *ProgressService) RecordProgress(ctx context.Context, roomID int, userID, name string, urls []string, isSurrendered bool) error {
	return s.progressRepo.Save(ctx, roomID, &models.Progress{
		UUID:          userID,
		Name:          name,
		URLs:          urls,
		IsSurrendered: isSurrendered,
	})
}

// CancelProgress 刪除玩家的路徑，記錄不存在時不視為錯誤
func (s *ProgressService) CancelProgress(ctx context.Context, roomID int, userID string) error {
	return s.progressRepo.Delete(ctx, roomID, userID)
}

func (s *ProgressService) ListProgress(ctx context.Context, roomID int) ([]models.Progress, error) {
	return s.progressRepo.FindByRoomID(ctx, roomID)
}

// ArchiveResult 將目前仍在房間內的玩家路徑與起點、終點一起寫入結果，重複呼叫會覆寫
func (s *ProgressService) ArchiveResult(ctx context.Context, roomID int) (*models.GameResult, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	progresses, err := s.progressRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	results := make([]models.Progress, 0, len(progresses))
	for _, progress := range progresses {
		if _, ok := room.Users[progress.UUID]; ok {
			results = append(results, progress)
		}
	}

	result := &models.GameResult{
		CreatedAt: s.now().UTC(),
		Start:     room.Start,
		Goal:      room.Goal,
		Results:   results,
	}
	if err := s.resultRepo.Save(ctx, roomID, result); err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	metrics.GamesArchived.Inc()
	s.logger.Info("game result archived", "room_id", roomID, "players", len(results), "dropped", len(progresses)-len(results))
	return result, nil
}

// ClearProgress 刪除房間所有玩家的路徑，避免房間 ID 重複使用時殘留舊資料
func (s *ProgressService) ClearProgress(ctx context.Context, roomID int) error {
	progresses, err := s.progressRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return err
	}
	for _, progress := range progresses {
		if err := s.progressRepo.Delete(ctx, roomID, progress.UUID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProgressService) GetResult(ctx context.Context, roomID int) (*models.GameResult, error) {
	result, err := s.resultRepo.FindByRoomID(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return result, err
}
