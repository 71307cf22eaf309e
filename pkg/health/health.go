// Package health runs one-shot connectivity checks against the services the
// client depends on and reports the outcome.
//
// Each registered check runs concurrently with its own timeout. A check is
// retried up to its attempt count before it is reported as failing, so a
// single dropped connection does not flag a dependency as down.
package health

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Option configures a single check.
type Option func(*check)

// WithAttempts sets how many times a check is tried before it fails.
func WithAttempts(n int) Option {
	return func(c *check) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the pause between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *check) { c.backoff = d }
}

type check struct {
	name     string
	timeout  time.Duration
	fn       CheckFunc
	attempts int
	backoff  time.Duration
}

// run executes the check until it passes or attempts are exhausted.
func (c *check) run(ctx context.Context) Result {
	start := time.Now()
	var err error
	for i := range c.attempts {
		if i > 0 && c.backoff > 0 {
			select {
			case <-ctx.Done():
				return Result{Name: c.name, Err: ctx.Err(), Attempts: i, Duration: time.Since(start)}
			case <-time.After(c.backoff):
			}
		}

		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = c.fn(checkCtx)
		cancel()

		if err == nil {
			return Result{Name: c.name, Attempts: i + 1, Duration: time.Since(start)}
		}
	}
	return Result{Name: c.name, Err: err, Attempts: c.attempts, Duration: time.Since(start)}
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Err      error
	Attempts int
	Duration time.Duration
}

// OK reports whether the check passed.
func (r Result) OK() bool { return r.Err == nil }

// Checker holds the registered checks.
type Checker struct {
	mu     sync.Mutex
	checks []*check
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{}
}

// Add registers a check. By default it is tried 3 times, 200ms apart.
func (h *Checker) Add(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	c := &check{
		name:     name,
		timeout:  timeout,
		fn:       fn,
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// Run executes every check concurrently and returns the results in
// registration order.
func (h *Checker) Run(ctx context.Context) Report {
	h.mu.Lock()
	checks := make([]*check, len(h.checks))
	copy(checks, h.checks)
	h.mu.Unlock()

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx)
		}()
	}
	wg.Wait()

	return Report{Results: results}
}

// Report is the outcome of a Run.
type Report struct {
	Results []Result
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Failures maps failing check names to their error text.
func (r Report) Failures() map[string]string {
	failures := make(map[string]string)
	for _, res := range r.Results {
		if !res.OK() {
			failures[res.Name] = res.Err.Error()
		}
	}
	return failures
}

// WriteTo prints one line per check.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, res := range r.Results {
		var (
			n   int
			err error
		)
		if res.OK() {
			n, err = fmt.Fprintf(w, "ok    %-10s %s\n", res.Name, res.Duration.Round(time.Millisecond))
		} else {
			n, err = fmt.Fprintf(w, "FAIL  %-10s %v (after %d attempts)\n", res.Name, res.Err, res.Attempts)
		}
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
