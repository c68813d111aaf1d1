package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig 是房間樹的儲存設定
type BadgerConfig struct {
	// Path 是 BadgerDB 的資料目錄，InMemory 為 true 時忽略
	Path string

	// InMemory 只存在記憶體中，不寫入磁碟
	InMemory bool

	// Logger 接收 BadgerDB 內部的日誌，nil 時丟棄
	Logger *slog.Logger

	// MaxConflictRetries 是遇到 badger.ErrConflict 時重試交易的次數上限，預設為 5
	MaxConflictRetries int
}

// BadgerStore 以 BadgerDB 實作 KVStore。
// 路徑的第一段（房間 ID）是 badger 的 key，其餘路徑在該 key 所存的 JSON 文件內導航，
// 因此同一房間內的讀改寫都落在同一個 key 上，可由 badger 的樂觀交易保護。
type BadgerStore struct {
	db         *badger.DB
	maxRetries int
}

// badgerLogger 將 slog.Logger 轉接為 BadgerDB 的 Logger 介面
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger 開啟 cfg.Path 下的房間樹（cfg.InMemory 時開在記憶體中），使用完畢必須呼叫 Close
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	retries := cfg.MaxConflictRetries
	if retries <= 0 {
		retries = 5
	}
	return &BadgerStore{db: db, maxRetries: retries}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get(ctx context.Context, path string, dst any) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var raw []byte
	err = s.db.View(func(txn *badger.Txn) error {
		root, err := readNode(txn, []byte(segs[0]))
		if err != nil {
			return err
		}
		node := lookup(root, segs[1:])
		if node == nil {
			return nil
		}
		raw, err = json.Marshal(node)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	if raw == nil {
		return false, nil
	}
	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			return true, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return true, nil
}

func (s *BadgerStore) Set(ctx context.Context, path string, value any) error {
	node, err := toNode(value)
	if err != nil {
		return err
	}
	return s.mutate(ctx, path, func(any) (any, error) {
		return node, nil
	})
}

func (s *BadgerStore) Update(ctx context.Context, path string, fields map[string]any) error {
	nodes := make(map[string]any, len(fields))
	for key, value := range fields {
		node, err := toNode(value)
		if err != nil {
			return err
		}
		nodes[key] = node
	}
	return s.mutate(ctx, path, func(current any) (any, error) {
		for key, node := range nodes {
			segs, err := splitPath(key)
			if err != nil {
				return nil, err
			}
			current = assign(current, segs, node)
		}
		return current, nil
	})
}

func (s *BadgerStore) Delete(ctx context.Context, path string) error {
	return s.mutate(ctx, path, func(any) (any, error) {
		return nil, nil
	})
}

func (s *BadgerStore) Transaction(ctx context.Context, path string, fn func(current []byte) (any, error)) error {
	return s.mutate(ctx, path, func(current any) (any, error) {
		var raw []byte
		if current != nil {
			var err error
			if raw, err = json.Marshal(current); err != nil {
				return nil, err
			}
		}
		next, err := fn(raw)
		if err != nil {
			return nil, err
		}
		return toNode(next)
	})
}

// mutate 在 badger 交易中以 fn 的結果取代 path 下的節點，遇到寫入衝突時重試
func (s *BadgerStore) mutate(ctx context.Context, path string, fn func(current any) (any, error)) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	key := []byte(segs[0])

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			root, err := readNode(txn, key)
			if err != nil {
				return err
			}
			next, err := fn(lookup(root, segs[1:]))
			if err != nil {
				return err
			}
			return writeNode(txn, key, assign(root, segs[1:], next))
		})
		if errors.Is(err, badger.ErrConflict) && attempt < s.maxRetries {
			continue
		}
		return err
	}
}

func readNode(txn *badger.Txn, key []byte) (any, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var node any
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	})
	return node, err
}

func writeNode(txn *badger.Txn, key []byte, node any) error {
	if isEmpty(node) {
		return txn.Delete(key)
	}
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// toNode 將任意值轉換為 JSON 樹節點（map[string]any、[]any 或純量）
func toNode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return node, nil
}

func lookup(node any, segs []string) any {
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return node
}

// assign 將 value 寫入 node 下的 segs 路徑並回傳新的節點，空節點會被剪除
func assign(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	child := assign(m[segs[0]], segs[1:], value)
	if isEmpty(child) {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	return m
}

func isEmpty(node any) bool {
	if node == nil {
		return true
	}
	m, ok := node.(map[string]any)
	return ok && len(m) == 0
}
