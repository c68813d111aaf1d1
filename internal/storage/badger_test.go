package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type testPlayer struct {
	Name   string `json:"name"`
	IsDone bool   `json:"isDone"`
}

func TestBadgerSetAndGetNested(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t)

	require.NoError(t, store.Set(ctx, "12345", map[string]any{
		"status": "PREPARATION",
		"users":  map[string]testPlayer{"u1": {Name: "alice"}},
	}))

	var status string
	found, err := store.Get(ctx, "12345/status", &status)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "PREPARATION", status)

	var player testPlayer
	found, err = store.Get(ctx, "12345/users/u1", &player)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", player.Name)

	found, err = store.Get(ctx, "12345/users/u2", nil)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = store.Get(ctx, "54321", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBadgerSetCreatesIntermediateNodes(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t)

	require.NoError(t, store.Set(ctx, "11111/start", "https://ja.wikipedia.org/wiki/A"))

	var room map[string]any
	found, err := store.Get(ctx, "11111", &room)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]any{"start": "https://ja.wikipedia.org/wiki/A"}, room)
}

func TestBadgerUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t)

	require.NoError(t, store.Set(ctx, "22222", map[string]any{"status": "PREPARATION", "host": "h"}))
	require.NoError(t, store.Update(ctx, "22222", map[string]any{
		"status":        "ONGOING",
		"users/u2/name": "bob",
	}))

	var room map[string]any
	_, err := store.Get(ctx, "22222", &room)
	require.NoError(t, err)
	assert.Equal(t, "ONGOING", room["status"])
	assert.Equal(t, "h", room["host"])
	assert.Equal(t, map[string]any{"u2": map[string]any{"name": "bob"}}, room["users"])
}

func TestBadgerDeletePrunesEmptyParents(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t)

	require.NoError(t, store.Set(ctx, "33333/users/u1/name", "alice"))
	require.NoError(t, store.Delete(ctx, "33333/users/u1/name"))

	found, err := store.Get(ctx, "33333", nil)
	require.NoError(t, err)
	assert.False(t, found)

	// 刪除不存在的路徑不是錯誤
	require.NoError(t, store.Delete(ctx, "33333"))
}

func TestBadgerTransaction(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t)

	err := store.Transaction(ctx, "44444/count", func(current []byte) (any, error) {
		assert.Nil(t, current)
		return 1, nil
	})
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = store.Transaction(ctx, "44444/count", func(current []byte) (any, error) {
		return nil, errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	var count int
	_, err = store.Get(ctx, "44444/count", &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBadgerTransactionConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store, err := OpenBadger(BadgerConfig{InMemory: true, MaxConflictRetries: 100})
	require.NoError(t, err)
	defer store.Close()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Transaction(ctx, "55555/count", func(current []byte) (any, error) {
				var n int
				if current != nil {
					if err := json.Unmarshal(current, &n); err != nil {
						return nil, err
					}
				}
				return n + 1, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int
	_, err = store.Get(ctx, "55555/count", &count)
	require.NoError(t, err)
	assert.Equal(t, workers, count)
}

func TestBadgerRejectsEmptyPath(t *testing.T) {
	store := newTestBadger(t)

	_, err := store.Get(context.Background(), "/", nil)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, store.Set(context.Background(), "", 1), ErrInvalidPath)
}
