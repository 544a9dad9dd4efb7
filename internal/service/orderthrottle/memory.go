package orderthrottle

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottle is the single-process fixed window used when no redis is configured.
type MemoryThrottle struct {
	mu          sync.Mutex
	maxOrders   int
	window      time.Duration
	entries     map[string]*entry
	lastCleanup time.Time
}

type entry struct {
	count int
	reset time.Time
}

func NewMemoryThrottle(maxOrders int, window time.Duration) *MemoryThrottle {
	return &MemoryThrottle{
		maxOrders: maxOrders,
		window:    window,
		entries:   map[string]*entry{},
	}
}

func (t *MemoryThrottle) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	if t.window <= 0 {
		return false, 0, ErrInvalidWindow
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastCleanup) >= t.window {
		for k, v := range t.entries {
			if !now.Before(v.reset) {
				delete(t.entries, k)
			}
		}
		t.lastCleanup = now
	}

	e, ok := t.entries[key]
	if !ok || !now.Before(e.reset) {
		t.entries[key] = &entry{count: 1, reset: now.Add(t.window)}
		return true, 0, nil
	}

	if e.count >= t.maxOrders {
		retryAfter := e.reset.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	e.count++
	return true, 0, nil
}
