package models

import "time"

// Progress 是玩家在某個房間提交的路徑，UUID 即文件 ID
type Progress struct {
	UUID          string   `json:"uuid"`
	Name          string   `json:"name"`
	URLs          []string `json:"urls"`
	IsSurrendered bool     `json:"isSurrendered"`
}

// GameResult 是一場遊戲結束後的存檔，每個房間一份
type GameResult struct {
	CreatedAt time.Time  `json:"createdAt"`
	Start     string     `json:"start"`
	Goal      string     `json:"goal"`
	Results   []Progress `json:"results"`
}
