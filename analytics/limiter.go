package analytics

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-key rate limiter. Counters reset when
// their window elapses, so a burst can span at most two windows.
type rateLimiter struct {
	mu       sync.Mutex
	seen     map[string]*windowCount
	max      int
	window   time.Duration
	quit     chan struct{}
	stopOnce sync.Once
}

type windowCount struct {
	start time.Time
	count int
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		seen:   make(map[string]*windowCount),
		max:    max,
		window: window,
		quit:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// stop ends the cleanup goroutine. allow keeps working: windows are checked
// inline, so only background map eviction goes away.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.quit) })
}

// allow reports whether key is under its limit and counts the request.
func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc, ok := rl.seen[key]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.seen[key] = &windowCount{start: now, count: 1}
		return true
	}
	if wc.count >= rl.max {
		return false
	}
	wc.count++
	return true
}

// cleanup drops keys whose window has long passed so the map does not grow
// with every address ever seen.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.quit:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for key, wc := range rl.seen {
			if wc.start.Before(cutoff) {
				delete(rl.seen, key)
			}
		}
		rl.mu.Unlock()
	}
}
