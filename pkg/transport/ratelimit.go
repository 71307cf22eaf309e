package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the request host is used.
	KeyFunc func(*http.Request) string
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// entry tracks request counts across two adjacent windows for the sliding
// window algorithm.
type entry struct {
	prevCount float64
	prevStart time.Time
	currCount float64
	currStart time.Time
}

// rateLimiter holds the shared state for rate limiting.
type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	entries map[string]*entry
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = hostKey
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &rateLimiter{
		cfg:     cfg,
		entries: make(map[string]*entry),
	}
}

// allow checks whether a request identified by key fits in the window and
// records it if so. When it does not, retryIn is the earliest moment the
// estimate drops below the limit.
func (rl *rateLimiter) allow(key string, now time.Time) (retryIn time.Duration, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok {
		e = &entry{currStart: now}
		rl.entries[key] = e
	}

	// Rotate window if the current window has elapsed.
	if now.Sub(e.currStart) >= rl.cfg.Window {
		e.prevCount = e.currCount
		e.prevStart = e.currStart
		e.currCount = 0
		e.currStart = now
		// If even the previous window is stale, zero it out.
		if now.Sub(e.prevStart) >= 2*rl.cfg.Window {
			e.prevCount = 0
		}
	}

	// Sliding window: weight previous window by how much of it overlaps
	// with the current sliding window.
	elapsed := now.Sub(e.currStart)
	overlapRatio := 1.0 - elapsed.Seconds()/rl.cfg.Window.Seconds()
	if overlapRatio < 0 {
		overlapRatio = 0
	}
	limit := float64(rl.cfg.Max)
	if e.prevCount*overlapRatio+e.currCount < limit {
		e.currCount++
		return 0, true
	}

	if e.currCount >= limit || e.prevCount == 0 {
		return e.currStart.Add(rl.cfg.Window).Sub(now), false
	}
	// prevCount * (1 - t/W) + currCount < Max  <=>  t > W * (1 - (Max-currCount)/prevCount)
	need := time.Duration(float64(rl.cfg.Window) * (1 - (limit-e.currCount)/e.prevCount))
	return e.currStart.Add(need).Sub(now) + time.Millisecond, false
}

// cleanup removes entries whose windows have fully expired.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, e := range rl.entries {
		if now.Sub(e.currStart) >= 2*rl.cfg.Window {
			delete(rl.entries, key)
		}
	}
}

// wait blocks until key may send a request or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context, key string) error {
	for {
		now := rl.cfg.Clock.Now()
		d, ok := rl.allow(key, now)
		if ok {
			return nil
		}
		if d <= 0 {
			d = time.Millisecond
		}

		t := rl.cfg.Clock.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.Chan():
		}
		rl.cleanup(rl.cfg.Clock.Now())
	}
}

// RateLimit returns a middleware that keeps outgoing requests under a
// per-key sliding window limit. Requests over the limit wait for the window
// to move instead of failing; a cancelled request context aborts the wait.
// A non-positive Max disables limiting.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}
	rl := newRateLimiter(cfg)
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(r *http.Request) (*http.Response, error) {
			if err := rl.wait(r.Context(), rl.cfg.KeyFunc(r)); err != nil {
				return nil, err
			}
			return next.RoundTrip(r)
		})
	}
}

func hostKey(r *http.Request) string {
	return r.URL.Host
}
