// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前包含玩家身分驗證：從 Bearer token（或 WebSocket 的 token 查詢參數）
// 解析出玩家 ID 與名稱，放入 gin 的上下文供 handlers 使用。
package middleware
