package realtime

import (
	"log/slog"
)

// Router 把事件分送給房間內除了來源以外的所有成員
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		logger:   logger.With(slog.String("component", "broadcast_router")),
	}
}

// Broadcast 回傳成功放進佇列的收件者數量。
//
// 同一條連線送出的事件由同一個 goroutine 依序呼叫 Broadcast，
// 而放進佇列是同步完成的，所以每個收件者看到的順序與送出順序一致。
// 無法送達的收件者會被略過，不影響其他人。
func (r *Router) Broadcast(originID string, ch Channel, key string, ev Event) int {
	key = roomOrDefault(key)
	ev.Room = key
	ev.Origin = originID

	delivered := 0
	for _, c := range r.registry.MembersOf(ch, key) {
		if c.ID() == originID {
			continue
		}
		if err := c.Send(ev); err != nil {
			r.logger.Debug("skipped recipient",
				slog.String("event", ev.Name),
				slog.String("room", key),
				slog.String("connID", c.ID()),
				slog.Any("error", err),
			)
			continue
		}
		delivered++
	}
	return delivered
}
