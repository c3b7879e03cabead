package realtime

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"collab_web/internal/auth"
)

// ErrTransportUnavailable 表示收件者的發送佇列已關閉或已滿，事件被略過
var ErrTransportUnavailable = errors.New("realtime: transport unavailable")

// Conn 代表一條即時連線的發送端。發送佇列永遠不會被關閉，
// 關閉連線只會關閉 done，因此任何時候呼叫 Send 都是安全的。
type Conn struct {
	id       string
	identity *auth.Identity
	send     chan Event
	done     chan struct{}
	once     sync.Once
	limiter  *rate.Limiter
}

// NewConn 建立連線，identity 可以是 nil（未登入也能使用白板與聊天）
func NewConn(id string, identity *auth.Identity, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 1
	}
	return &Conn{
		id:       id,
		identity: identity,
		send:     make(chan Event, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Identity 回傳連線的身分，未登入時 ok 為 false
func (c *Conn) Identity() (auth.Identity, bool) {
	if c.identity == nil {
		return auth.Identity{}, false
	}
	return *c.identity, true
}

// Send 以不阻塞的方式把事件放進發送佇列
func (c *Conn) Send(ev Event) error {
	select {
	case <-c.done:
		return ErrTransportUnavailable
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		return ErrTransportUnavailable
	}
}

// Outbound 是寫入端讀取的發送佇列
func (c *Conn) Outbound() <-chan Event { return c.send }

// Done 在連線關閉後會被關閉
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close 可以重複呼叫
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}
