package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newMemoryWithClock(window time.Duration, maxKeys int) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(window, maxKeys)
	m.now = clock.now
	return m, clock
}

func TestMemorySecondRequestWithinWindowIsRejected(t *testing.T) {
	m, clock := newMemoryWithClock(time.Second, 10)
	ctx := context.Background()

	if ok, _ := m.Allow(ctx, "203.0.113.7"); !ok {
		t.Fatalf("expected first request to be allowed")
	}
	clock.t = clock.t.Add(999 * time.Millisecond)
	if ok, _ := m.Allow(ctx, "203.0.113.7"); ok {
		t.Fatalf("expected second request within 1s to be rejected")
	}
}

func TestMemoryRequestsSpacedByWindowAreAllowed(t *testing.T) {
	m, clock := newMemoryWithClock(time.Second, 10)
	ctx := context.Background()

	if ok, _ := m.Allow(ctx, "client"); !ok {
		t.Fatalf("expected first request to be allowed")
	}
	clock.t = clock.t.Add(time.Second)
	if ok, _ := m.Allow(ctx, "client"); !ok {
		t.Fatalf("expected request 1s later to be allowed")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m, _ := newMemoryWithClock(time.Second, 10)
	ctx := context.Background()

	a, _ := m.Allow(ctx, "a")
	b, _ := m.Allow(ctx, "b")
	if !a || !b {
		t.Fatalf("expected distinct clients to be limited independently")
	}
}

func TestMemoryEvictsLeastRecentlySeen(t *testing.T) {
	m, _ := newMemoryWithClock(time.Second, 2)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "a")
	_, _ = m.Allow(ctx, "b")
	_, _ = m.Allow(ctx, "a") // touch a so b is the oldest
	_, _ = m.Allow(ctx, "c")

	if m.Len() != 2 {
		t.Fatalf("expected size to stay bounded at 2, got %d", m.Len())
	}
	if _, ok := m.entries["b"]; ok {
		t.Fatalf("expected b to be evicted")
	}
	if ok, _ := m.Allow(ctx, "a"); ok {
		t.Fatalf("expected a to still be limited after eviction of b")
	}
}

func TestRedisLimiterWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisWithClient(client, time.Second, "search:")
	t.Cleanup(func() { _ = limiter.Close() })
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "client")
	if err != nil || !ok {
		t.Fatalf("expected first request to be allowed, got %v %v", ok, err)
	}
	ok, err = limiter.Allow(ctx, "client")
	if err != nil || ok {
		t.Fatalf("expected second request to be rejected, got %v %v", ok, err)
	}
	if !mr.Exists("search:client") {
		t.Fatalf("expected prefixed key to exist")
	}

	mr.FastForward(time.Second)
	ok, err = limiter.Allow(ctx, "client")
	if err != nil || !ok {
		t.Fatalf("expected request after window to be allowed, got %v %v", ok, err)
	}
}

func TestRedisLimiterReportsConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	limiter := NewRedisWithClient(client, time.Second, "")
	mr.Close()

	if _, err := limiter.Allow(context.Background(), "client"); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
