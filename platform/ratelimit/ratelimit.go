// Package ratelimit provides keyed "one request per window" limiters.
// This is part of the platform layer and contains no business logic.
package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	key     string
	limiter *rate.Limiter
}

// Memory is a process-local limiter. It keeps at most maxKeys clients;
// the least recently seen client is evicted when a new one arrives at
// capacity.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	maxKeys int
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

// NewMemory creates a limiter allowing one request per window per key.
func NewMemory(window time.Duration, maxKeys int) *Memory {
	if maxKeys < 1 {
		maxKeys = 1
	}
	return &Memory{
		window:  window,
		maxKeys: maxKeys,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Allow reports whether key has not been seen within the last window.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if el, ok := m.entries[key]; ok {
		m.order.MoveToFront(el)
		return el.Value.(*memoryEntry).limiter.AllowN(now, 1), nil
	}

	if m.order.Len() >= m.maxKeys {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoryEntry).key)
	}

	entry := &memoryEntry{key: key, limiter: rate.NewLimiter(rate.Every(m.window), 1)}
	m.entries[key] = m.order.PushFront(entry)
	return entry.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

var _ Limiter = (*Memory)(nil)
