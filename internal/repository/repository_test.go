package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wikirace/internal/models"
	"wikirace/internal/storage"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()

	kv, err := storage.OpenBadger(storage.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	docs, err := storage.NewGormDocumentStore(db)
	require.NoError(t, err)

	return NewRepositories(kv, docs)
}

func TestRoomRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	exists, err := repos.Room.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repos.Room.FindByID(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)

	room := &models.Room{
		Status: models.RoomStatusPreparation,
		Host:   "h",
		Users:  map[string]models.Player{"h": {Name: "Host"}},
	}
	require.NoError(t, repos.Room.Create(ctx, 12345, room))

	exists, err = repos.Room.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repos.Room.FindByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "h", got.Host)
	assert.Equal(t, "Host", got.Users["h"].Name)

	require.NoError(t, repos.Room.Delete(ctx, 12345))
	exists, err = repos.Room.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoomRepositoryMutate(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	err := repos.Room.Mutate(ctx, 20000, func(room *models.Room) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repos.Room.Create(ctx, 20000, &models.Room{
		Status: models.RoomStatusPreparation,
		Host:   "h",
		Users:  map[string]models.Player{"h": {Name: "Host"}},
	}))

	require.NoError(t, repos.Room.Mutate(ctx, 20000, func(room *models.Room) error {
		room.Start = "https://ja.wikipedia.org/wiki/A"
		room.Users["g"] = models.Player{Name: "Guest"}
		return nil
	}))

	got, err := repos.Room.FindByID(ctx, 20000)
	require.NoError(t, err)
	assert.Equal(t, "https://ja.wikipedia.org/wiki/A", got.Start)
	assert.Len(t, got.Users, 2)

	// fn 失敗時不寫入
	boom := errors.New("boom")
	err = repos.Room.Mutate(ctx, 20000, func(room *models.Room) error {
		room.Host = "g"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err = repos.Room.FindByID(ctx, 20000)
	require.NoError(t, err)
	assert.Equal(t, "h", got.Host)
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	require.NoError(t, repos.Progress.Save(ctx, 30000, &models.Progress{UUID: "b", Name: "Bob", URLs: []string{"x", "y"}}))
	require.NoError(t, repos.Progress.Save(ctx, 30000, &models.Progress{UUID: "a", Name: "Alice", IsSurrendered: true}))
	require.NoError(t, repos.Progress.Save(ctx, 30001, &models.Progress{UUID: "c", Name: "Carol"}))

	progresses, err := repos.Progress.FindByRoomID(ctx, 30000)
	require.NoError(t, err)
	require.Len(t, progresses, 2)
	assert.Equal(t, "a", progresses[0].UUID)
	assert.True(t, progresses[0].IsSurrendered)
	assert.NotNil(t, progresses[0].URLs)
	assert.Empty(t, progresses[0].URLs)
	assert.Equal(t, []string{"x", "y"}, progresses[1].URLs)

	require.NoError(t, repos.Progress.Delete(ctx, 30000, "b"))
	progresses, err = repos.Progress.FindByRoomID(ctx, 30000)
	require.NoError(t, err)
	require.Len(t, progresses, 1)
	assert.Equal(t, "Alice", progresses[0].Name)

	progresses, err = repos.Progress.FindByRoomID(ctx, 99999)
	require.NoError(t, err)
	assert.Empty(t, progresses)
}

func TestResultRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	_, err := repos.Result.FindByRoomID(ctx, 40000)
	assert.ErrorIs(t, err, ErrNotFound)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Result.Save(ctx, 40000, &models.GameResult{
		CreatedAt: created,
		Start:     "s",
		Goal:      "g",
		Results:   []models.Progress{{UUID: "a", Name: "Alice", URLs: []string{"m"}}},
	}))

	got, err := repos.Result.FindByRoomID(ctx, 40000)
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "s", got.Start)
	require.Len(t, got.Results, 1)
	assert.Equal(t, []string{"m"}, got.Results[0].URLs)
}
