// Package middleware 提供 gin 的中間件。
//
// AuthMiddleware 從 Authorization header 或 token cookie 取出 token 並交給 auth.Gate 驗證，
// RequestID 與 RequestLogger 負責請求追蹤與結構化日誌。
package middleware
