package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wikirace/internal/models"
	"wikirace/internal/repository"
	"wikirace/internal/storage"
	"wikirace/internal/wiki"
)

func newTestRepositories(t *testing.T) *repository.Repositories {
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

	return repository.NewRepositories(kv, docs)
}

// recordingNotifier 記錄房間變更事件
type recordingNotifier struct {
	mu      sync.Mutex
	changed []int
	deleted []int
}

func (n *recordingNotifier) RoomChanged(roomID int, _ *models.Room) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, roomID)
}

func (n *recordingNotifier) RoomDeleted(roomID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, roomID)
}

// pageFetcher 以記憶體中的頁面回應，並記錄被取得的網址
type pageFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
	err     error
}

func (f *pageFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.pages[url]), nil
}

// linkPage 產生一個含有指定條目連結的頁面
func linkPage(targets ...string) string {
	page := "<html><body>"
	for _, target := range targets {
		page += `<a href="/wiki/` + target + `">` + target + `</a>`
	}
	return page + "</body></html>"
}

func article(name string) string {
	return "https://ja.wikipedia.org/wiki/" + name
}

type testEnv struct {
	repos    *repository.Repositories
	notifier *recordingNotifier
	fetcher  *pageFetcher
	rooms    *RoomService
	progress *ProgressService
	game     *GameService
}

func newTestEnv(t *testing.T, opts RoomOptions) *testEnv {
	t.Helper()
	repos := newTestRepositories(t)
	notifier := &recordingNotifier{}
	fetcher := &pageFetcher{pages: map[string]string{}}

	rooms := NewRoomService(repos.Room, notifier, nil, opts)
	progress := NewProgressService(repos.Progress, repos.Result, rooms, nil)
	validator := NewPathValidator(wiki.NewLinkChecker(fetcher), 0)

	return &testEnv{
		repos:    repos,
		notifier: notifier,
		fetcher:  fetcher,
		rooms:    rooms,
		progress: progress,
		game:     NewGameService(rooms, progress, validator, nil),
	}
}
