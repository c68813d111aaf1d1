package storage

import (
	"context"
	"encoding/json"
)

// Document 是集合中的一份文件，Data 為 JSON 編碼內容
type Document struct {
	ID   string
	Data []byte
}

// Decode 將文件內容解碼到 dst
func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Data, dst)
}

// DocumentStore 以集合名稱與文件 ID 定址文件，集合名稱可以含有斜線表示巢狀集合
type DocumentStore interface {
	// SetDocument 以 data 完整覆寫文件
	SetDocument(ctx context.Context, collection, id string, data any) error
	// GetDocument 將文件解碼到 dst，文件不存在時回傳 false
	GetDocument(ctx context.Context, collection, id string, dst any) (bool, error)
	// DeleteDocument 刪除文件，文件不存在時不回傳錯誤
	DeleteDocument(ctx context.Context, collection, id string) error
	// StreamDocuments 依文件 ID 順序列出集合內所有文件
	StreamDocuments(ctx context.Context, collection string) ([]Document, error)
}
