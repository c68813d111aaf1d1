package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"wikirace/internal/models"
	"wikirace/internal/storage"
)

// ErrNotFound 表示路徑或文件下沒有資料
var ErrNotFound = errors.New("record not found")

type RoomRepository interface {
	Exists(ctx context.Context, roomID int) (bool, error)
	FindByID(ctx context.Context, roomID int) (*models.Room, error)
	// Create 無條件覆寫房間 ID 下的所有資料
	Create(ctx context.Context, roomID int, room *models.Room) error
	// Mutate 在單一交易中讀取房間、交給 fn 修改後寫回；房間不存在時回傳 ErrNotFound
	Mutate(ctx context.Context, roomID int, fn func(room *models.Room) error) error
	Delete(ctx context.Context, roomID int) error
}

type roomRepository struct {
	kv storage.KVStore
}

func NewRoomRepository(kv storage.KVStore) RoomRepository {
	return &roomRepository{kv: kv}
}

func roomPath(roomID int, children ...string) string {
	return storage.Path(append([]string{strconv.Itoa(roomID)}, children...)...)
}

func (r *roomRepository) Exists(ctx context.Context, roomID int) (bool, error) {
	return r.kv.Get(ctx, roomPath(roomID), nil)
}

func (r *roomRepository) FindByID(ctx context.Context, roomID int) (*models.Room, error) {
	var room models.Room
	found, err := r.kv.Get(ctx, roomPath(roomID), &room)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (r *roomRepository) Create(ctx context.Context, roomID int, room *models.Room) error {
	return r.kv.Set(ctx, roomPath(roomID), room)
}

func (r *roomRepository) Mutate(ctx context.Context, roomID int, fn func(room *models.Room) error) error {
	return r.kv.Transaction(ctx, roomPath(roomID), func(current []byte) (any, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var room models.Room
		if err := json.Unmarshal(current, &room); err != nil {
			return nil, err
		}
		if err := fn(&room); err != nil {
			return nil, err
		}
		return &room, nil
	})
}

func (r *roomRepository) Delete(ctx context.Context, roomID int) error {
	return r.kv.Delete(ctx, roomPath(roomID))
}
