// Package api 處理 HTTP 請求路由。
//
// handlers 只負責解析請求、呼叫 service 並把領域錯誤轉換為 HTTP 狀態碼，
// 房間狀態機與路徑驗證的規則都在 service 包中。
package api
