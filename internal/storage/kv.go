package storage

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidPath = errors.New("invalid path")

// KVStore 是一棵以斜線分隔路徑定址的 key-value 樹，寫入採最後寫入者勝出
type KVStore interface {
	// Get 將 path 下的值解碼到 dst，路徑不存在時回傳 false
	Get(ctx context.Context, path string, dst any) (bool, error)
	Set(ctx context.Context, path string, value any) error
	// Update 將 fields 合併到 path 下，fields 的鍵可以是相對子路徑
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	// Transaction 在單一交易中讀取 path 目前的 JSON（不存在時為 nil），
	// 並寫入 fn 回傳的新值；fn 回傳 nil 代表刪除，回傳錯誤則放棄寫入
	Transaction(ctx context.Context, path string, fn func(current []byte) (any, error)) error
}

// Path 以斜線串接路徑片段
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) ([]string, error) {
	segs := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return nil, ErrInvalidPath
	}
	return segs, nil
}
