package transport

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recorder is a terminal RoundTripper that remembers the requests it saw.
type recorder struct {
	mu   sync.Mutex
	reqs []*http.Request
	err  error
}

func (rt *recorder) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.reqs = append(rt.reqs, r)
	if rt.err != nil {
		return nil, rt.err
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
}

func (rt *recorder) count() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.reqs)
}

func newRequest(t *testing.T, ctx context.Context, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return Func(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	rt := Chain(&recorder{}, mw("outer"), mw("inner"))
	_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/meals"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		ctxID  string
		want   string
	}{
		{name: "existing header kept", header: "from-header", ctxID: "from-ctx", want: "from-header"},
		{name: "context id used", ctxID: "from-ctx", want: "from-ctx"},
		{name: "invalid header replaced", header: "bad\x01id", ctxID: "from-ctx", want: "from-ctx"},
		{name: "generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &recorder{}
			rt := Chain(base, RequestID())

			ctx := context.Background()
			if tt.ctxID != "" {
				ctx = WithRequestID(ctx, tt.ctxID)
			}
			req := newRequest(t, ctx, "http://api.local/orders")
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}

			_, err := rt.RoundTrip(req)
			require.NoError(t, err)
			require.Len(t, base.reqs, 1)

			got := base.reqs[0].Header.Get(HeaderRequestID)
			if tt.want == "" {
				assert.Len(t, got, 36)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestID_DoesNotMutateCaller(t *testing.T) {
	rt := Chain(&recorder{}, RequestID())
	req := newRequest(t, context.Background(), "http://api.local/")

	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get(HeaderRequestID))
}

func TestIsValidRequestID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"abc-123", true},
		{"", false},
		{string(make([]byte, 129)), false},
		{"tab\there", false},
		{"ünïcode", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, isValidRequestID(tt.id), "id %q", tt.id)
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lg := zap.New(core)

	ok := Chain(&recorder{}, Logging(lg))
	_, err := ok.RoundTrip(newRequest(t, context.Background(), "http://api.local/meals"))
	require.NoError(t, err)

	boom := errors.New("connection refused")
	failing := Chain(&recorder{err: boom}, Logging(lg))
	_, err = failing.RoundTrip(newRequest(t, context.Background(), "http://api.local/orders"))
	require.ErrorIs(t, err, boom)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "HTTP request", entries[0].Message)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, "/meals", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "HTTP request failed", entries[1].Message)
}

func TestRateLimit_UnderLimit(t *testing.T) {
	base := &recorder{}
	rt := Chain(base, RateLimit(RateLimitConfig{
		Max:    5,
		Window: time.Minute,
		Clock:  clockwork.NewFakeClock(),
	}))

	for i := range 5 {
		_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/"))
		require.NoError(t, err, "request %d should pass", i+1)
	}
	assert.Equal(t, 5, base.count())
}

func TestRateLimit_WaitsForWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	base := &recorder{}
	rt := Chain(base, RateLimit(RateLimitConfig{
		Max:    2,
		Window: time.Minute,
		Clock:  clock,
	}))

	// Exhaust the limit.
	for range 2 {
		_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/"))
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/"))
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, base.count())

	clock.Advance(2 * time.Minute)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("request still waiting after window moved")
	}
	assert.Equal(t, 3, base.count())
}

func TestRateLimit_CancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	base := &recorder{}
	rt := Chain(base, RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Clock:  clock,
	}))

	_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := rt.RoundTrip(newRequest(t, ctx, "http://api.local/"))
		done <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, base.count())
}

func TestRateLimit_DifferentHosts(t *testing.T) {
	base := &recorder{}
	rt := Chain(base, RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Clock:  clockwork.NewFakeClock(),
	}))

	for _, host := range []string{"http://api.local/", "http://auth.local/", "http://img.local/"} {
		_, err := rt.RoundTrip(newRequest(t, context.Background(), host))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, base.count())
}

func TestRateLimit_Disabled(t *testing.T) {
	base := &recorder{}
	rt := Chain(base, RateLimit(RateLimitConfig{}))
	for range 10 {
		_, err := rt.RoundTrip(newRequest(t, context.Background(), "http://api.local/"))
		require.NoError(t, err)
	}
	assert.Equal(t, 10, base.count())
}

func TestRateLimit_SlidingEstimate(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 10, Window: time.Minute})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for range 10 {
		_, ok := rl.allow("k", start)
		require.True(t, ok)
	}
	_, ok := rl.allow("k", start.Add(30*time.Second))
	require.False(t, ok)

	// One window later the previous 10 still weigh fully; half a window
	// after that only 5 do.
	_, ok = rl.allow("k", start.Add(time.Minute))
	require.False(t, ok)
	retryIn, ok := rl.allow("k", start.Add(time.Minute))
	require.False(t, ok)
	assert.Equal(t, time.Millisecond, retryIn)

	for i := range 5 {
		_, ok = rl.allow("k", start.Add(90*time.Second))
		require.True(t, ok, "request %d", i)
	}
	_, ok = rl.allow("k", start.Add(90*time.Second))
	assert.False(t, ok)
}
