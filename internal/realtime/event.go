package realtime

import (
	"encoding/json"
	"time"
)

// Channel 區分白板與聊天室兩種房間，兩者的房間 key 互相獨立
type Channel string

const (
	ChannelWhiteboard Channel = "whiteboard"
	ChannelChat       Channel = "chat"
)

// DefaultRoom 是沒有指定房間時使用的 key
const DefaultRoom = "global"

// 事件名稱
const (
	EventWhiteboardJoin  = "whiteboard:join"
	EventWhiteboardLeave = "whiteboard:leave"
	EventWhiteboardDraw  = "whiteboard:draw"
	EventWhiteboardClear = "whiteboard:clear"
	EventChatJoin        = "chat:join"
	EventChatLeave       = "chat:leave"
	EventChatMessage     = "chat:message"
	EventError           = "error"
)

// Envelope 是 websocket 上雙向傳遞的訊息格式
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event 是一次廣播中傳遞的暫存事件，不會被保存
type Event struct {
	Name    string
	Room    string
	Origin  string
	Time    time.Time
	Payload any
}

// boardPayload 是白板事件的輸入
type boardPayload struct {
	BoardID string          `json:"boardId"`
	Stroke  json.RawMessage `json:"stroke,omitempty"`
}

// chatPayload 是聊天事件的輸入
type chatPayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// StrokeEvent 送給其他成員的筆畫
type StrokeEvent struct {
	Stroke json.RawMessage `json:"stroke"`
	Sender string          `json:"sender"`
	Time   time.Time       `json:"time"`
}

// ClearEvent 通知其他成員清空白板
type ClearEvent struct {
	Sender string    `json:"sender"`
	Time   time.Time `json:"time"`
}

// ChatMessage 送給其他成員的聊天訊息
type ChatMessage struct {
	Message string    `json:"message"`
	Sender  string    `json:"sender"`
	UserID  uint      `json:"user_id,omitempty"`
	Time    time.Time `json:"time"`
}

// ErrorEvent 只回給送出錯誤輸入的那條連線
type ErrorEvent struct {
	Message string `json:"message"`
}

func roomOrDefault(key string) string {
	if key == "" {
		return DefaultRoom
	}
	return key
}
