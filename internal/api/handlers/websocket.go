package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"collab_web/internal/auth"
	"collab_web/internal/middleware"
	"collab_web/internal/realtime"
)

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	hub      *realtime.Hub
	gate     *auth.Gate
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例。
// allowedOrigins 為空或包含 "*" 時接受任何來源
func NewWebSocketHandler(hub *realtime.Hub, gate *auth.Gate, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &WebSocketHandler{
		hub:  hub,
		gate: gate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger.With("component", "websocket_handler"),
	}
}

// HandleWebSocket 升級連線。token 可以不帶，帶了就必須有效
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.Credential(c)
	}

	var identity *auth.Identity
	if token != "" {
		id, err := h.gate.Authenticate(token)
		if err != nil {
			middleware.AbortWithAuthError(c, err)
			return
		}
		identity = &id
	}

	// 升級 HTTP 連接為 WebSocket 連接，失敗時 upgrader 已經回應了錯誤
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.hub.Serve(ws, identity)
}

// Stats 回傳目前的連線與房間數量
func (h *WebSocketHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Registry().Stats())
}
