package repository

import "wikirace/internal/storage"

type Repositories struct {
	Room     RoomRepository
	Progress ProgressRepository
	Result   ResultRepository
}

func NewRepositories(kv storage.KVStore, docs storage.DocumentStore) *Repositories {
	return &Repositories{
		Room:     NewRoomRepository(kv),
		Progress: NewProgressRepository(docs),
		Result:   NewResultRepository(docs),
	}
}
