package throttle

import (
	"context"
	"sync"
	"time"

	"docverify/pkg/requestcontext"
)

type counter struct {
	start time.Time
	count int64
}

// MemoryLimiter keeps one counter per key for the current window. Counters
// from past windows are swept once per window.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	counters  map[string]*counter
	lastSweep time.Time
}

func NewMemory(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*counter),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := requestcontext.Now(ctx)
	start := windowStart(now, l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if start.Sub(l.lastSweep) >= l.window {
		for k, c := range l.counters {
			if c.start.Before(start) {
				delete(l.counters, k)
			}
		}
		l.lastSweep = start
	}

	c, ok := l.counters[key]
	if !ok || !c.start.Equal(start) {
		c = &counter{start: start}
		l.counters[key] = c
	}
	c.count++
	return result(c.count, l.limit, start.Add(l.window)), nil
}
