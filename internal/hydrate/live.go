package hydrate

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// AfterHandoff runs fn once with a live (wall-clock-seeded) source after the
// given delay, modelling a post-mount hook: it never executes on the shared
// render path, and cancelling ctx before the delay elapses stops it cleanly.
// The returned channel closes when fn has either run or been cancelled.
func AfterHandoff(ctx context.Context, delay time.Duration, fn func(*rand.Rand)) <-chan struct{} {
	done := make(chan struct{})
	timer := time.NewTimer(delay)
	go func() {
		defer close(done)
		select {
		case <-timer.C:
			fn(LiveRand())
		case <-ctx.Done():
			timer.Stop()
		}
	}()
	return done
}

// LiveCounter is a counter meant to feel live, such as a visitor count. It is
// seeded once from the stable hash of its key, then nudged by small random
// deltas on a repeating timer. It is never reset to a fresh random value, so
// observers see drift instead of jumps.
type LiveCounter struct {
	mu    sync.Mutex
	value int64
	rng   *rand.Rand
}

// NewLiveCounter seeds a counter into [min, max] from key. The seed is
// deterministic: the first rendered value matches across server and client.
func NewLiveCounter(key string, min, max int64) *LiveCounter {
	base := min
	if max > min {
		base += int64(Unit(key, 0) * float64(max-min+1))
	}
	return &LiveCounter{value: base, rng: LiveRand()}
}

// Value returns the current counter value.
func (c *LiveCounter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Start nudges the counter by a delta in [-2, +3] every interval until ctx is
// cancelled. The nudge loop is the live phase; it must only be started after
// the handoff completes. The counter never goes below 1.
func (c *LiveCounter) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				c.value += int64(c.rng.Intn(6)) - 2
				if c.value < 1 {
					c.value = 1
				}
				c.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
}
