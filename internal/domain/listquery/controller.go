package listquery

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/notify"
)

// DefaultDebounce is the quiet period after a search, filter or sort edit.
const DefaultDebounce = 300 * time.Millisecond

const instrumentationName = "github.com/xenking/foodhub-client/internal/domain/listquery"

// Options configures a Controller. Zero values select defaults.
type Options struct {
	// Name labels logs, spans and metrics, e.g. "meals".
	Name     string
	Initial  Query
	PageSize int
	Debounce time.Duration

	Clock    clockwork.Clock
	Notifier notify.Notifier
	Logger   *zap.Logger
	// ErrorMessage renders a fetch error for the notifier.
	ErrorMessage func(err error) string

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Controller drives a list view. Search, filter and sort edits reset the
// page to 1 and are debounced; page changes fetch at once. Only the result
// of the most recently issued fetch is applied.
//
// All state transitions happen under one mutex; timer callbacks and fetch
// completions take it like any other event.
type Controller[T any] struct {
	src      Source[T]
	name     string
	clock    clockwork.Clock
	debounce time.Duration
	nt       notify.Notifier
	lg       *zap.Logger
	errMsg   func(error) string
	tracer   trace.Tracer
	metrics  controllerMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   State[T]
	timer   clockwork.Timer
	timerID uint64
	seq     uint64
	closed  bool

	feed notify.Feed[State[T]]
}

type controllerMetrics struct {
	fetches  metric.Int64Counter
	stale    metric.Int64Counter
	failures metric.Int64Counter
	attrs    metric.MeasurementOption
}

// New returns an idle controller over src. Call Start to issue the first
// fetch.
func New[T any](src Source[T], opts Options) *Controller[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ErrorMessage == nil {
		opts.ErrorMessage = func(err error) string { return err.Error() }
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}

	q := opts.Initial.Clone()
	q.PageSize = opts.PageSize
	if q.Page < 1 {
		q.Page = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		src:      src,
		name:     opts.Name,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		nt:       opts.Notifier,
		lg:       opts.Logger.With(zap.String("list", opts.Name)),
		errMsg:   opts.ErrorMessage,
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
		ctx:      ctx,
		cancel:   cancel,
		state:    State[T]{Phase: PhaseIdle, Query: q, Page: q.Page, PageSize: q.PageSize},
	}
	c.metrics = newControllerMetrics(opts.MeterProvider.Meter(instrumentationName), opts.Name, c.lg)
	return c
}

func newControllerMetrics(m metric.Meter, name string, lg *zap.Logger) controllerMetrics {
	var (
		out controllerMetrics
		err error
	)
	out.attrs = metric.WithAttributes(attribute.String("list", name))
	if out.fetches, err = m.Int64Counter("foodhub.list.fetches",
		metric.WithDescription("List fetches issued")); err != nil {
		lg.Warn("Failed to create counter", zap.Error(err))
	}
	if out.stale, err = m.Int64Counter("foodhub.list.stale_responses",
		metric.WithDescription("List responses dropped because a newer fetch was issued")); err != nil {
		lg.Warn("Failed to create counter", zap.Error(err))
	}
	if out.failures, err = m.Int64Counter("foodhub.list.failures",
		metric.WithDescription("List fetches that failed")); err != nil {
		lg.Warn("Failed to create counter", zap.Error(err))
	}
	return out
}

func (m controllerMetrics) add(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1, m.attrs)
	}
}

// Start issues the initial fetch immediately.
func (c *Controller[T]) Start() {
	c.update(func() bool {
		c.stopTimer()
		c.issue()
		return true
	})
}

// SetSearch replaces the search text.
func (c *Controller[T]) SetSearch(search string) {
	c.edit(func(q *Query) { q.Search = search })
}

// SetFilter replaces the values of filter name. No values clears it.
func (c *Controller[T]) SetFilter(name string, values ...string) {
	c.edit(func(q *Query) {
		if len(values) == 0 {
			delete(q.Filters, name)
			return
		}
		if q.Filters == nil {
			q.Filters = make(map[string][]string)
		}
		q.Filters[name] = slices.Clone(values)
	})
}

// SetSort replaces the sort key.
func (c *Controller[T]) SetSort(sort string) {
	c.edit(func(q *Query) { q.Sort = sort })
}

// SetPage fetches page n at once. Pages past the end are forwarded as-is;
// values below 1 are treated as 1.
func (c *Controller[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.update(func() bool {
		c.state.Query.Page = n
		c.stopTimer()
		c.issue()
		return true
	})
}

// NextPage moves forward one page if there is one.
func (c *Controller[T]) NextPage() {
	c.update(func() bool {
		if !c.state.HasNext() {
			return false
		}
		c.state.Query.Page++
		c.stopTimer()
		c.issue()
		return true
	})
}

// PrevPage moves back one page if there is one.
func (c *Controller[T]) PrevPage() {
	c.update(func() bool {
		if !c.state.HasPrev() {
			return false
		}
		c.state.Query.Page--
		c.stopTimer()
		c.issue()
		return true
	})
}

// Refresh refetches the current query at once.
func (c *Controller[T]) Refresh() {
	c.Start()
}

// Query returns the query the next fetch will use.
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Query.Clone()
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Subscribe registers fn to receive the state after every transition. The
// returned function unregisters it.
func (c *Controller[T]) Subscribe(fn func(State[T])) (cancel func()) {
	return c.feed.Subscribe(fn)
}

// Close stops the debounce timer and abandons in-flight fetches. It waits
// for fetch goroutines to return.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimer()
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

// edit applies fn to the pending query, resets the page and (re)arms the
// debounce timer.
func (c *Controller[T]) edit(fn func(q *Query)) {
	c.update(func() bool {
		fn(&c.state.Query)
		c.state.Query.Page = 1
		c.armTimer()
		c.state.Phase = PhasePendingDebounce
		return true
	})
}

// update runs fn under the mutex and publishes the new state when fn
// reports a change. States are queued under the mutex, so subscribers see
// them in transition order.
func (c *Controller[T]) update(fn func() bool) {
	c.mu.Lock()
	if c.closed || !fn() {
		c.mu.Unlock()
		return
	}
	c.feed.Queue(c.snapshot())
	c.mu.Unlock()

	c.feed.Flush()
}

func (c *Controller[T]) armTimer() {
	c.stopTimer()
	c.timerID++
	id := c.timerID
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(id) })
}

func (c *Controller[T]) stopTimer() {
	if c.timer == nil {
		return
	}
	c.timer.Stop()
	c.timer = nil
	// Invalidate a callback that already started.
	c.timerID++
}

func (c *Controller[T]) fire(id uint64) {
	c.update(func() bool {
		if id != c.timerID {
			return false
		}
		c.timer = nil
		c.issue()
		return true
	})
}

// issue starts a fetch for the pending query. Called with mu held.
func (c *Controller[T]) issue() {
	c.seq++
	seq := c.seq
	q := c.state.Query.Clone()
	c.state.Phase = PhaseLoading

	c.metrics.add(c.ctx, c.metrics.fetches)
	c.lg.Debug("Fetching list",
		zap.Uint64("seq", seq),
		zap.Int("page", q.Page),
		zap.String("search", q.Search),
		zap.String("sort", q.Sort),
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.fetch(q)
		c.complete(seq, q, res, err)
	}()
}

func (c *Controller[T]) fetch(q Query) (Result[T], error) {
	ctx, span := c.tracer.Start(c.ctx, "listquery.Fetch", trace.WithAttributes(
		attribute.String("list", c.name),
		attribute.Int("page", q.Page),
		attribute.Int("page_size", q.PageSize),
	))
	defer span.End()

	res, err := c.src.Fetch(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (c *Controller[T]) complete(seq uint64, q Query, res Result[T], err error) {
	var failed string
	c.update(func() bool {
		if seq != c.seq {
			c.metrics.add(c.ctx, c.metrics.stale)
			c.lg.Debug("Dropping stale list response", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
			return false
		}

		pending := c.timer != nil
		if err != nil {
			c.metrics.add(c.ctx, c.metrics.failures)
			c.lg.Warn("Failed to fetch list", zap.Int("page", q.Page), zap.Error(err))
			c.state.Err = err
			c.state.Phase = PhaseError
			failed = c.errMsg(err)
		} else {
			c.apply(q, res)
		}
		if pending {
			c.state.Phase = PhasePendingDebounce
		}
		return true
	})

	if failed == "" {
		return
	}
	c.nt.Notify(notify.Failure("Error", failed))

	// Reported; rest in Idle until the next edit or page change.
	c.update(func() bool {
		if seq != c.seq || c.state.Phase != PhaseError {
			return false
		}
		c.state.Phase = PhaseIdle
		return true
	})
}

// apply installs a successful result. Called with mu held.
func (c *Controller[T]) apply(q Query, res Result[T]) {
	page := res.Page
	if page < 1 {
		page = q.Page
	}
	size := res.PageSize
	if size < 1 {
		size = q.PageSize
	}
	total := res.TotalPages
	if total <= 0 {
		total = TotalPages(res.TotalItems, size)
	}
	items := res.Items
	if items == nil {
		items = []T{}
	}

	c.state.Items = items
	c.state.Page = page
	c.state.PageSize = size
	c.state.TotalPages = total
	c.state.TotalItems = res.TotalItems
	c.state.Err = nil
	c.state.Phase = PhaseReady
}

func (c *Controller[T]) snapshot() State[T] {
	s := c.state
	s.Query = c.state.Query.Clone()
	s.Items = slices.Clone(c.state.Items)
	return s
}

