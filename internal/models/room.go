package models

// Room 表示一場維基百科競速遊戲的房間，存放於 key-value 樹中以房間 ID 為根的路徑
type Room struct {
	IsReady bool              `json:"isReady"`
	Status  RoomStatus        `json:"status"`
	Host    string            `json:"host"`
	Start   string            `json:"start,omitempty"`
	Goal    string            `json:"goal,omitempty"`
	Users   map[string]Player `json:"users"`
}

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusPreparation RoomStatus = "PREPARATION"
	RoomStatusOngoing     RoomStatus = "ONGOING"
	RoomStatusEnded       RoomStatus = "ENDED"
)

// rank 用於判斷狀態只能前進不能後退
func (s RoomStatus) rank() int {
	switch s {
	case RoomStatusPreparation:
		return 0
	case RoomStatusOngoing:
		return 1
	case RoomStatusEnded:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo 回報是否允許由 s 轉換到 next（相同狀態視為允許）
func (s RoomStatus) CanAdvanceTo(next RoomStatus) bool {
	return next.rank() >= s.rank() && next.rank() >= 0
}

// Player 是房間內單一玩家的狀態
type Player struct {
	Name          string `json:"name"`
	IsDone        bool   `json:"isDone"`
	IsSurrendered bool   `json:"isSurrendered"`
}

// AllDone 當所有玩家都完成時回傳 true，沒有玩家時視為全部完成
func AllDone(users map[string]Player) bool {
	for _, user := range users {
		if !user.IsDone {
			return false
		}
	}
	return true
}
