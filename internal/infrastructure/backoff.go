package infrastructure

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// jitterBackoff grows min by factor per attempt, adds up to max-min of jitter
// and never exceeds max.
type jitterBackoff struct {
	mu     sync.Mutex
	factor float64
	min    time.Duration
	max    time.Duration
	rng    *rand.Rand
}

func newJitterBackoff(factor float64, min, max time.Duration) *jitterBackoff {
	return &jitterBackoff{
		factor: factor,
		min:    min,
		max:    max,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *jitterBackoff) Delay(attempt int) time.Duration {
	backoff := float64(b.min) * math.Pow(b.factor, float64(attempt))
	if backoff > float64(b.max) {
		backoff = float64(b.max)
	}

	base := time.Duration(backoff)
	if b.max <= b.min {
		return base
	}

	b.mu.Lock()
	jitter := time.Duration(b.rng.Int63n(int64(b.max-b.min) + 1))
	b.mu.Unlock()

	if result := base + jitter; result < b.max {
		return result
	}

	return b.max
}
