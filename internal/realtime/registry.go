package realtime

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownConnection 表示連線未註冊或已經斷線
var ErrUnknownConnection = errors.New("realtime: unknown connection")

type roomID struct {
	channel Channel
	key     string
}

func (r roomID) String() string { return string(r.channel) + "/" + r.key }

// Registry 管理所有連線與房間成員。一把 RWMutex 保護全部狀態，
// Join / Leave / Disconnect / MembersOf 彼此之間是線性一致的。
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Conn
	rooms       map[roomID]map[string]*Conn // 房間 -> 連線 ID -> 連線
	memberships map[string]map[Channel]string

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:       make(map[string]*Conn),
		rooms:       make(map[roomID]map[string]*Conn),
		memberships: make(map[string]map[Channel]string),
		logger:      logger.With(slog.String("component", "session_registry")),
	}
}

// Register 在連線建立時呼叫一次
func (r *Registry) Register(c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[c.ID()]; exists {
		return errors.New("realtime: connection is already registered")
	}
	r.conns[c.ID()] = c
	r.memberships[c.ID()] = make(map[Channel]string)
	r.logger.Debug("connection registered", slog.String("connID", c.ID()))
	return nil
}

// Join 把連線加入房間；若已在同一頻道的其他房間，會先移出舊房間
func (r *Registry) Join(connID string, ch Channel, key string) error {
	key = roomOrDefault(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}

	if current, in := r.memberships[connID][ch]; in {
		if current == key {
			return nil
		}
		r.removeLocked(connID, roomID{ch, current})
	}

	id := roomID{ch, key}
	members, exists := r.rooms[id]
	if !exists {
		members = make(map[string]*Conn)
		r.rooms[id] = members
	}
	members[connID] = c
	r.memberships[connID][ch] = key

	r.logger.Debug("joined room", slog.String("connID", connID), slog.String("room", id.String()))
	return nil
}

// Leave 把連線移出房間，不是成員時什麼都不做
func (r *Registry) Leave(connID string, ch Channel, key string) {
	key = roomOrDefault(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, in := r.memberships[connID][ch]; !in || current != key {
		return
	}
	r.removeLocked(connID, roomID{ch, key})
}

// Disconnect 移除連線在所有房間的成員資格並釋放狀態，重複呼叫是安全的
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return
	}
	for ch, key := range r.memberships[connID] {
		r.removeLocked(connID, roomID{ch, key})
	}
	delete(r.memberships, connID)
	delete(r.conns, connID)
	r.logger.Debug("connection deregistered", slog.String("connID", connID))
}

// removeLocked 呼叫前必須持有寫鎖
func (r *Registry) removeLocked(connID string, id roomID) {
	if members, ok := r.rooms[id]; ok {
		delete(members, connID)
		// 房間空了就刪除
		if len(members) == 0 {
			delete(r.rooms, id)
		}
	}
	if m, ok := r.memberships[connID]; ok && m[id.channel] == id.key {
		delete(m, id.channel)
	}
}

// MembersOf 回傳呼叫當下房間成員的快照
func (r *Registry) MembersOf(ch Channel, key string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID{ch, roomOrDefault(key)}]
	out := make([]*Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// MemberIDs 與 MembersOf 相同，但只回傳排序後的連線 ID
func (r *Registry) MemberIDs(ch Channel, key string) []string {
	members := r.MembersOf(ch, key)
	ids := make([]string, len(members))
	for i, c := range members {
		ids[i] = c.ID()
	}
	sort.Strings(ids)
	return ids
}

// RoomOf 回傳連線在某個頻道目前所在的房間
func (r *Registry) RoomOf(connID string, ch Channel) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.memberships[connID][ch]
	return key, ok
}

// Stats 是註冊表的統計資訊
type Stats struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]int, len(r.rooms))
	for id, members := range r.rooms {
		rooms[id.String()] = len(members)
	}
	return Stats{Connections: len(r.conns), Rooms: rooms}
}

// Connections 回傳目前所有連線，關機時用來逐一關閉
func (r *Registry) Connections() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
