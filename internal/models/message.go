package models

import "time"

// RoomEvent 是推送給 WebSocket 訂閱者的房間快照
type RoomEvent struct {
	Type      string    `json:"type"`
	RoomID    int       `json:"room_id"`
	Room      *Room     `json:"room,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventRoomUpdated = "room_updated"
	EventRoomDeleted = "room_deleted"
)

// NewRoomUpdatedEvent 創建一個房間更新事件
func NewRoomUpdatedEvent(roomID int, room *Room) RoomEvent {
	return RoomEvent{
		Type:      EventRoomUpdated,
		RoomID:    roomID,
		Room:      room,
		Timestamp: time.Now(),
	}
}

// NewRoomDeletedEvent 創建一個房間刪除事件
func NewRoomDeletedEvent(roomID int) RoomEvent {
	return RoomEvent{
		Type:      EventRoomDeleted,
		RoomID:    roomID,
		Timestamp: time.Now(),
	}
}
