package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"

	"wikirace/internal/metrics"
	"wikirace/internal/models"
	"wikirace/internal/repository"
	"wikirace/internal/wiki"
)

// RoomOptions 控制房間 ID 的產生範圍與狀態機的嚴格程度
type RoomOptions struct {
	MinID       int
	MaxID       int
	MaxAttempts int
	// Strict 為 true 時：加入已結束的房間會失敗、記錄投降狀態、ENDED 之後不能再轉換狀態
	Strict bool
}

func DefaultRoomOptions() RoomOptions {
	return RoomOptions{
		MinID:       10000,
		MaxID:       99999,
		MaxAttempts: 5,
		Strict:      true,
	}
}

// RoomNotifier 接收房間變更，用於即時推送
type RoomNotifier interface {
	RoomChanged(roomID int, room *models.Room)
	RoomDeleted(roomID int)
}

// RoomService 管理房間的建立、加入、狀態轉換與玩家進度。
// 每個操作都重新讀取房間並在同一個交易中檢查後寫入，不信任呼叫端快取的狀態。
type RoomService struct {
	roomRepo repository.RoomRepository
	notifier RoomNotifier
	logger   *slog.Logger
	opts     RoomOptions
	intn     func(n int) int
}

func NewRoomService(roomRepo repository.RoomRepository, notifier RoomNotifier, logger *slog.Logger, opts RoomOptions) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{
		roomRepo: roomRepo,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		intn:     rand.Intn,
	}
}

// Strict 回報是否使用包含關閉檢查與投降記錄的房間規則
func (s *RoomService) Strict() bool {
	return s.opts.Strict
}

// CreateRoomID 在 [MinID, MaxID] 中隨機挑選目前未被使用的房間 ID，最多嘗試 MaxAttempts 次
func (s *RoomService) CreateRoomID(ctx context.Context) (int, error) {
	span := s.opts.MaxID - s.opts.MinID + 1
	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		roomID := s.opts.MinID + s.intn(span)
		exists, err := s.roomRepo.Exists(ctx, roomID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return roomID, nil
		}
		s.logger.Debug("room id collision", "room_id", roomID, "attempt", attempt+1)
	}
	return 0, ErrRoomIDExhausted
}

// InitRoom 以建立者為房主建立房間，會無條件覆寫該 ID 下既有的資料
func (s *RoomService) InitRoom(ctx context.Context, roomID int, userID, userName string) error {
	room := &models.Room{
		IsReady: false,
		Status:  models.RoomStatusPreparation,
		Host:    userID,
		Users: map[string]models.Player{
			userID: {Name: userName},
		},
	}
	if err := s.roomRepo.Create(ctx, roomID, room); err != nil {
		return err
	}

	metrics.RoomsCreated.Inc()
	s.logger.Info("room created", "room_id", roomID, "host", userID)
	s.notifyChanged(roomID, room)
	return nil
}

// CreateRoom 取得新的房間 ID 並初始化房間
func (s *RoomService) CreateRoom(ctx context.Context, userID, userName string) (int, error) {
	roomID, err := s.CreateRoomID(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.InitRoom(ctx, roomID, userID, userName); err != nil {
		return 0, err
	}
	return roomID, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom 將玩家加入房間，重複加入會重置該玩家的進度
func (s *RoomService) JoinRoom(ctx context.Context, roomID int, userID, userName string) error {
	return s.mutate(ctx, roomID, func(room *models.Room) error {
		if s.opts.Strict && room.Status == models.RoomStatusEnded {
			return ErrRoomClosed
		}
		if room.Users == nil {
			room.Users = make(map[string]models.Player)
		}
		room.Users[userID] = models.Player{Name: userName}
		return nil
	})
}

// SetRoomStatus 將房間狀態設為 ONGOING（toOngoing）或 ENDED。
// force 為 false 時只有房主可以操作；嚴格模式下狀態只能前進，ENDED 之後再轉為 ONGOING 會回傳 ErrRoomClosed。
func (s *RoomService) SetRoomStatus(ctx context.Context, roomID int, requesterID string, toOngoing, force bool) error {
	next := models.RoomStatusEnded
	if toOngoing {
		next = models.RoomStatusOngoing
	}

	err := s.mutate(ctx, roomID, func(room *models.Room) error {
		if !force && room.Host != requesterID {
			return ErrNotHost
		}
		if s.opts.Strict && !room.Status.CanAdvanceTo(next) {
			return ErrRoomClosed
		}
		room.Status = next
		return nil
	})
	if err != nil {
		return err
	}

	metrics.StatusTransitions.WithLabelValues(string(next), strconv.FormatBool(force)).Inc()
	s.logger.Info("room status changed", "room_id", roomID, "status", next, "forced", force)
	return nil
}

// SetArticle 設定起點（isStart）或終點條目，只接受維基百科的條目網址
func (s *RoomService) SetArticle(ctx context.Context, roomID int, url string, isStart bool) error {
	if !wiki.IsArticleURL(url) {
		return fmt.Errorf("%w: %s", ErrNotWikipedia, url)
	}
	return s.mutate(ctx, roomID, func(room *models.Room) error {
		if isStart {
			room.Start = url
		} else {
			room.Goal = url
		}
		return nil
	})
}

// UpdatePlayerProgress 更新玩家的完成與投降狀態，整筆玩家資料會被寫回
func (s *RoomService) UpdatePlayerProgress(ctx context.Context, roomID int, userID string, isDone, isSurrendered bool) error {
	return s.mutate(ctx, roomID, func(room *models.Room) error {
		player, ok := room.Users[userID]
		if !ok {
			return ErrNotInRoom
		}
		player.IsDone = isDone
		if s.opts.Strict {
			player.IsSurrendered = isSurrendered
		}
		room.Users[userID] = player
		return nil
	})
}

func (s *RoomService) GetUsers(ctx context.Context, roomID int) (map[string]models.Player, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Users == nil {
		return map[string]models.Player{}, nil
	}
	return room.Users, nil
}

// DestroyRoom 刪除整個房間，force 為 false 時只有房主可以操作
func (s *RoomService) DestroyRoom(ctx context.Context, roomID int, requesterID string, force bool) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !force && room.Host != requesterID {
		return ErrNotHost
	}
	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		return err
	}

	s.logger.Info("room destroyed", "room_id", roomID, "forced", force)
	if s.notifier != nil {
		s.notifier.RoomDeleted(roomID)
	}
	return nil
}

// mutate 以交易修改房間，成功後推送最新快照
func (s *RoomService) mutate(ctx context.Context, roomID int, fn func(room *models.Room) error) error {
	var updated models.Room
	err := s.roomRepo.Mutate(ctx, roomID, func(room *models.Room) error {
		if err := fn(room); err != nil {
			return err
		}
		updated = *room
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	s.notifyChanged(roomID, &updated)
	return nil
}

func (s *RoomService) notifyChanged(roomID int, room *models.Room) {
	if s.notifier != nil {
		s.notifier.RoomChanged(roomID, room)
	}
}
