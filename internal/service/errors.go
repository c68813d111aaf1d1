package service

import (
	"errors"
	"fmt"
)

var (
	ErrRoomIDExhausted   = errors.New("無法建立房間：房間 ID 已達重試上限")
	ErrRoomNotFound      = errors.New("房間不存在")
	ErrRoomClosed        = errors.New("房間已經結束")
	ErrNotHost           = errors.New("只有房主可以執行此操作")
	ErrNotInRoom         = errors.New("只有房間內的玩家可以執行此操作")
	ErrArticlesNotSet    = errors.New("房主尚未設定起點與終點條目")
	ErrInvalidSubmission = errors.New("提交的進度缺少必要欄位")
	ErrNotWikipedia      = errors.New("只能使用維基百科的條目網址")
	ErrTooManyHops       = errors.New("路徑中的條目數量超過上限")
)

// PathInvalidError 表示路徑中的某一步無法從 From 經由超連結抵達 To
type PathInvalidError struct {
	From string
	To   string
}

func (e *PathInvalidError) Error() string {
	return fmt.Sprintf("無法從 %s 抵達 %s", e.From, e.To)
}
