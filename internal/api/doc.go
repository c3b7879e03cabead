// Package api 註冊 HTTP 與 WebSocket 路由。
//
// handlers 子套件把請求轉換為服務層的呼叫：任務、留言與版本的單筆操作
// 一律經過 service.Coordinator，列表與統計則直接呼叫對應的服務。
package api
