package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecord 是 documents 資料表的一列
type DocumentRecord struct {
	Collection string `gorm:"primaryKey;size:255"`
	DocID      string `gorm:"primaryKey;size:255"`
	Data       []byte `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentRecord) TableName() string {
	return "documents"
}

// GormDocumentStore 以關聯式資料表實作 DocumentStore
type GormDocumentStore struct {
	db *gorm.DB
}

// NewGormDocumentStore 遷移 documents 資料表並回傳文件存儲
func NewGormDocumentStore(db *gorm.DB) (*GormDocumentStore, error) {
	if err := db.AutoMigrate(&DocumentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &GormDocumentStore{db: db}, nil
}

func (s *GormDocumentStore) SetDocument(ctx context.Context, collection, id string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	record := DocumentRecord{Collection: collection, DocID: id, Data: encoded}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
}

func (s *GormDocumentStore) GetDocument(ctx context.Context, collection, id string, dst any) (bool, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dst != nil {
		if err := json.Unmarshal(record.Data, dst); err != nil {
			return true, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
		}
	}
	return true, nil
}

func (s *GormDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&DocumentRecord{}).Error
}

func (s *GormDocumentStore) StreamDocuments(ctx context.Context, collection string) ([]Document, error) {
	var records []DocumentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, Document{ID: record.DocID, Data: record.Data})
	}
	return docs, nil
}
