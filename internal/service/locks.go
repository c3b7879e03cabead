package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type lockKey struct {
	typ ResourceType
	id  uint
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// keyedLocks 為每個資源維護一把鎖，沒有人使用時就移除
type keyedLocks struct {
	mu      sync.Mutex
	entries map[lockKey]*lockEntry
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{entries: make(map[lockKey]*lockEntry)}
}

// acquire 會在 ctx 取消時放棄等待
func (l *keyedLocks) acquire(ctx context.Context, key lockKey) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(key, e)
		})
	}, nil
}

func (l *keyedLocks) unref(key lockKey, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *keyedLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
