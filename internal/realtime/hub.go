package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"collab_web/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Options 是每條連線的參數
type Options struct {
	SendBuffer      int
	ReadLimit       int64
	EventsPerSecond float64 // <= 0 表示不限流
	Burst           int
}

// Hub 把 websocket 連線接到 Registry 與 Router
type Hub struct {
	registry *Registry
	router   *Router
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewHub(registry *Registry, router *Router, opts Options, logger *slog.Logger) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 64 * 1024
	}
	return &Hub{
		registry: registry,
		router:   router,
		opts:     opts,
		logger:   logger.With(slog.String("component", "realtime_hub")),
		now:      time.Now,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// Connect 建立並註冊一條新連線
func (h *Hub) Connect(identity *auth.Identity) (*Conn, error) {
	c := NewConn(uuid.NewString(), identity, h.opts.SendBuffer)
	if h.opts.EventsPerSecond > 0 {
		burst := h.opts.Burst
		if burst <= 0 {
			burst = int(h.opts.EventsPerSecond)
		}
		c.limiter = rate.NewLimiter(rate.Limit(h.opts.EventsPerSecond), burst)
	}
	if err := h.registry.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Disconnect 在連線結束時呼叫，重複呼叫是安全的
func (h *Hub) Disconnect(c *Conn) {
	h.registry.Disconnect(c.ID())
	c.Close()
}

// Serve 處理一條 websocket 連線直到它關閉
func (h *Hub) Serve(ws *websocket.Conn, identity *auth.Identity) {
	c, err := h.Connect(identity)
	if err != nil {
		h.logger.Error("failed to register connection", slog.Any("error", err))
		ws.Close()
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()

	logger := h.logger.With(slog.String("connID", c.ID()))
	if id, ok := c.Identity(); ok {
		logger = logger.With(slog.Any("userID", id.UserID))
	}
	logger.Info("connection established")

	// 確保連線關閉時清理資源
	defer func() {
		h.Disconnect(c)
		logger.Info("connection closed")
	}()

	go h.writePump(ws, c, logger)
	h.readPump(ws, c, logger)
}

// readPump 持續讀取客戶端訊息，並在同一個 goroutine 中依序處理
func (h *Hub) readPump(ws *websocket.Conn, c *Conn, logger *slog.Logger) {
	ws.SetReadLimit(h.opts.ReadLimit)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket unexpected close", slog.Any("error", err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Debug("message parse error", slog.Any("error", err))
			h.reply(c, "invalid message format")
			continue
		}
		h.Dispatch(c, env)
	}
}

// writePump 消化發送佇列並定時送出 ping
func (h *Hub) writePump(ws *websocket.Conn, c *Conn, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case ev := <-c.Outbound():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(outbound{Event: ev.Name, Data: ev.Payload}); err != nil {
				logger.Debug("write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Dispatch 處理一個收到的事件。同一條連線的事件必須由同一個 goroutine 呼叫。
func (h *Hub) Dispatch(c *Conn, env Envelope) {
	if !c.allow() {
		h.logger.Warn("event rate exceeded, dropping", slog.String("connID", c.ID()), slog.String("event", env.Event))
		return
	}

	switch env.Event {
	case EventWhiteboardJoin, EventWhiteboardLeave, EventWhiteboardDraw, EventWhiteboardClear:
		var p boardPayload
		if !h.decode(c, env, &p) {
			return
		}
		h.handleBoard(c, env.Event, p)

	case EventChatJoin, EventChatLeave, EventChatMessage:
		var p chatPayload
		if !h.decode(c, env, &p) {
			return
		}
		h.handleChat(c, env.Event, p)

	default:
		h.reply(c, "unknown event: "+env.Event)
	}
}

func (h *Hub) handleBoard(c *Conn, event string, p boardPayload) {
	switch event {
	case EventWhiteboardJoin:
		h.join(c, ChannelWhiteboard, p.BoardID)
	case EventWhiteboardLeave:
		h.registry.Leave(c.ID(), ChannelWhiteboard, p.BoardID)
	case EventWhiteboardDraw:
		// 沒有筆畫就忽略
		if len(p.Stroke) == 0 || string(p.Stroke) == "null" {
			return
		}
		h.router.Broadcast(c.ID(), ChannelWhiteboard, p.BoardID, Event{
			Name:    EventWhiteboardDraw,
			Time:    h.now(),
			Payload: StrokeEvent{Stroke: p.Stroke, Sender: c.ID(), Time: h.now()},
		})
	case EventWhiteboardClear:
		h.router.Broadcast(c.ID(), ChannelWhiteboard, p.BoardID, Event{
			Name:    EventWhiteboardClear,
			Time:    h.now(),
			Payload: ClearEvent{Sender: c.ID(), Time: h.now()},
		})
	}
}

func (h *Hub) handleChat(c *Conn, event string, p chatPayload) {
	switch event {
	case EventChatJoin:
		h.join(c, ChannelChat, p.Room)
	case EventChatLeave:
		h.registry.Leave(c.ID(), ChannelChat, p.Room)
	case EventChatMessage:
		if p.Message == "" {
			return
		}
		msg := ChatMessage{Message: p.Message, Sender: c.ID(), Time: h.now()}
		if id, ok := c.Identity(); ok {
			msg.UserID = id.UserID
		}
		h.router.Broadcast(c.ID(), ChannelChat, p.Room, Event{
			Name:    EventChatMessage,
			Time:    msg.Time,
			Payload: msg,
		})
	}
}

func (h *Hub) join(c *Conn, ch Channel, key string) {
	if err := h.registry.Join(c.ID(), ch, key); err != nil {
		h.logger.Warn("join failed", slog.String("connID", c.ID()), slog.Any("error", err))
		h.reply(c, "join failed")
	}
}

func (h *Hub) decode(c *Conn, env Envelope, v any) bool {
	if len(env.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		h.reply(c, "invalid payload for "+env.Event)
		return false
	}
	return true
}

// reply 只把錯誤回給送出事件的連線
func (h *Hub) reply(c *Conn, message string) {
	_ = c.Send(Event{Name: EventError, Origin: c.ID(), Time: h.now(), Payload: ErrorEvent{Message: message}})
}

// Shutdown 關閉所有連線並等待它們結束
func (h *Hub) Shutdown(ctx context.Context) error {
	for _, c := range h.registry.Connections() {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
