package repository

import (
	"context"
	"strconv"

	"wikirace/internal/models"
	"wikirace/internal/storage"
)

const resultsCollection = "game-results"

// progressDocument 是 progress/{roomID}/users/{uuid} 文件的內容，uuid 存放在文件 ID
type progressDocument struct {
	Name          string   `json:"name"`
	URLs          []string `json:"urls"`
	IsSurrendered bool     `json:"isSurrendered"`
}

type ProgressRepository interface {
	Save(ctx context.Context, roomID int, progress *models.Progress) error
	Delete(ctx context.Context, roomID int, uuid string) error
	FindByRoomID(ctx context.Context, roomID int) ([]models.Progress, error)
}

type progressRepository struct {
	docs storage.DocumentStore
}

func NewProgressRepository(docs storage.DocumentStore) ProgressRepository {
	return &progressRepository{docs: docs}
}

func progressCollection(roomID int) string {
	return storage.Path("progress", strconv.Itoa(roomID), "users")
}

func (r *progressRepository) Save(ctx context.Context, roomID int, progress *models.Progress) error {
	urls := progress.URLs
	if urls == nil {
		urls = []string{}
	}
	return r.docs.SetDocument(ctx, progressCollection(roomID), progress.UUID, progressDocument{
		Name:          progress.Name,
		URLs:          urls,
		IsSurrendered: progress.IsSurrendered,
	})
}

func (r *progressRepository) Delete(ctx context.Context, roomID int, uuid string) error {
	return r.docs.DeleteDocument(ctx, progressCollection(roomID), uuid)
}

func (r *progressRepository) FindByRoomID(ctx context.Context, roomID int) ([]models.Progress, error) {
	docs, err := r.docs.StreamDocuments(ctx, progressCollection(roomID))
	if err != nil {
		return nil, err
	}

	progresses := make([]models.Progress, 0, len(docs))
	for _, doc := range docs {
		var data progressDocument
		if err := doc.Decode(&data); err != nil {
			return nil, err
		}
		progresses = append(progresses, models.Progress{
			UUID:          doc.ID,
			Name:          data.Name,
			URLs:          data.URLs,
			IsSurrendered: data.IsSurrendered,
		})
	}
	return progresses, nil
}

type ResultRepository interface {
	Save(ctx context.Context, roomID int, result *models.GameResult) error
	FindByRoomID(ctx context.Context, roomID int) (*models.GameResult, error)
}

type resultRepository struct {
	docs storage.DocumentStore
}

func NewResultRepository(docs storage.DocumentStore) ResultRepository {
	return &resultRepository{docs: docs}
}

func (r *resultRepository) Save(ctx context.Context, roomID int, result *models.GameResult) error {
	return r.docs.SetDocument(ctx, resultsCollection, strconv.Itoa(roomID), result)
}

func (r *resultRepository) FindByRoomID(ctx context.Context, roomID int) (*models.GameResult, error) {
	var result models.GameResult
	found, err := r.docs.GetDocument(ctx, resultsCollection, strconv.Itoa(roomID), &result)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &result, nil
}
