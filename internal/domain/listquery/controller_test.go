package listquery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/notify"
)

const waitFor = 2 * time.Second

// --- Mock implementations ---

type response struct {
	res Result[string]
	err error
}

type call struct {
	q    Query
	resp chan response
}

// fakeSource blocks every fetch until the test resolves it.
type fakeSource struct {
	mu    sync.Mutex
	calls []*call
}

func (f *fakeSource) Fetch(ctx context.Context, q Query) (Result[string], error) {
	c := &call{q: q, resp: make(chan response, 1)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	select {
	case r := <-c.resp:
		return r.res, r.err
	case <-ctx.Done():
		return Result[string]{}, ctx.Err()
	}
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// await waits until the n-th (1-based) fetch has been issued and returns it.
func (f *fakeSource) await(t *testing.T, n int) *call {
	t.Helper()
	require.Eventually(t, func() bool { return f.count() >= n }, waitFor, time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[n-1]
}

func (c *call) ok(items []string, totalItems, totalPages int) {
	c.resp <- response{res: Result[string]{
		Items:      items,
		Page:       c.q.Page,
		PageSize:   c.q.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}}
}

func (c *call) fail(err error) {
	c.resp <- response{err: err}
}

// --- Helpers ---

type fixture struct {
	src    *fakeSource
	clock  *clockwork.FakeClock
	rec    *notify.Recorder
	reader *sdkmetric.ManualReader
	ctrl   *Controller[string]
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		src:    &fakeSource{},
		clock:  clockwork.NewFakeClock(),
		rec:    &notify.Recorder{},
		reader: sdkmetric.NewManualReader(),
	}
	opts.Name = "meals"
	opts.Clock = f.clock
	opts.Notifier = f.rec
	opts.Logger = zap.NewNop()
	opts.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.reader))
	f.ctrl = New[string](f.src, opts)
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) waitPhase(t *testing.T, phase Phase) State[string] {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.ctrl.State().Phase == phase
	}, waitFor, time.Millisecond)
	return f.ctrl.State()
}

// advanceDebounce waits for the debounce timer to be armed and lets it fire.
func (f *fixture) advanceDebounce(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(DefaultDebounce)
}

func (f *fixture) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

// --- Tests ---

func TestTotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		totalItems int
		pageSize   int
		want       int
	}{
		{name: "exact", totalItems: 18, pageSize: 9, want: 2},
		{name: "remainder", totalItems: 20, pageSize: 9, want: 3},
		{name: "single", totalItems: 1, pageSize: 9, want: 1},
		{name: "empty", totalItems: 0, pageSize: 9, want: 0},
		{name: "zero page size", totalItems: 5, pageSize: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TotalPages(tt.totalItems, tt.pageSize))
		})
	}
}

func TestState_Pagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		page     int
		total    int
		wantShow bool
		wantNext bool
		wantPrev bool
	}{
		{name: "no results", page: 1, total: 0},
		{name: "single page", page: 1, total: 1},
		{name: "first of three", page: 1, total: 3, wantShow: true, wantNext: true},
		{name: "middle", page: 2, total: 3, wantShow: true, wantNext: true, wantPrev: true},
		{name: "last", page: 3, total: 3, wantShow: true, wantPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := State[string]{Query: Query{Page: tt.page}, TotalPages: tt.total}
			assert.Equal(t, tt.wantShow, s.ShowPagination())
			assert.Equal(t, tt.wantNext, s.HasNext())
			assert.Equal(t, tt.wantPrev, s.HasPrev())
		})
	}
}

func TestState_Failed(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	tests := []struct {
		name  string
		state State[string]
		want  bool
	}{
		{name: "fresh", state: State[string]{Phase: PhaseIdle}},
		{name: "ready", state: State[string]{Phase: PhaseReady}},
		{name: "error", state: State[string]{Phase: PhaseError, Err: boom}, want: true},
		{name: "idle after error", state: State[string]{Phase: PhaseIdle, Err: boom}, want: true},
		{name: "retry pending", state: State[string]{Phase: PhasePendingDebounce, Err: boom}},
		{name: "retry loading", state: State[string]{Phase: PhaseLoading, Err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.state.Failed())
		})
	}
}

func TestQuery_Equal(t *testing.T) {
	t.Parallel()

	a := Query{Filters: map[string][]string{"dietary": {"Vegan", "Vegetarian"}, "category": nil}, Page: 1}
	b := Query{Filters: map[string][]string{"dietary": {"Vegetarian", "Vegan"}}, Page: 1}
	assert.True(t, a.Equal(b))

	b.Page = 2
	assert.False(t, a.Equal(b))
	assert.Equal(t, []string{"dietary"}, a.FilterNames())
}

func TestController_StartLoadsFirstPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.Start()
	c := f.src.await(t, 1)
	assert.Equal(t, 1, c.q.Page)
	assert.Equal(t, DefaultPageSize, c.q.PageSize)
	assert.Equal(t, PhaseLoading, f.ctrl.State().Phase)

	c.ok([]string{"a", "b"}, 2, 1)

	s := f.waitPhase(t, PhaseReady)
	assert.Equal(t, []string{"a", "b"}, s.Items)
	assert.False(t, s.ShowPagination())
	assert.Equal(t, int64(1), f.counter(t, "foodhub.list.fetches"))
}

func TestController_DerivesTotalPages(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{PageSize: 9})

	f.ctrl.Start()
	f.src.await(t, 1).ok([]string{"a"}, 20, 0)

	s := f.waitPhase(t, PhaseReady)
	assert.Equal(t, 3, s.TotalPages)
	assert.True(t, s.ShowPagination())
	assert.True(t, s.HasNext())
}

func TestController_FilterChangeResetsPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.Start()
	f.src.await(t, 1).ok(nil, 45, 5)
	f.waitPhase(t, PhaseReady)

	f.ctrl.SetPage(3)
	c := f.src.await(t, 2)
	assert.Equal(t, 3, c.q.Page)
	c.ok([]string{"p3"}, 45, 5)
	f.waitPhase(t, PhaseReady)

	f.ctrl.SetFilter("category", "pizza")
	assert.Equal(t, 1, f.ctrl.Query().Page, "page resets at edit time")
	assert.Equal(t, PhasePendingDebounce, f.ctrl.State().Phase)

	f.advanceDebounce(t)
	c = f.src.await(t, 3)
	assert.Equal(t, 1, c.q.Page)
	assert.Equal(t, []string{"pizza"}, c.q.Filter("category"))
}

func TestController_DebounceRestartsOnEachEdit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	f.ctrl.SetSearch("p")
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(200 * time.Millisecond)

	f.ctrl.SetSearch("pi")
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(200 * time.Millisecond)

	f.ctrl.SetSearch("piz")
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(299 * time.Millisecond)
	assert.Never(t, func() bool { return f.src.count() > 0 }, 50*time.Millisecond, time.Millisecond)

	f.clock.Advance(time.Millisecond)
	c := f.src.await(t, 1)
	assert.Equal(t, "piz", c.q.Search)

	assert.Never(t, func() bool { return f.src.count() > 1 }, 50*time.Millisecond, time.Millisecond)
}

func TestController_PageChangeSkipsDebounce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.SetSort("price-asc")
	f.ctrl.SetPage(2)

	c := f.src.await(t, 1)
	assert.Equal(t, 2, c.q.Page)
	assert.Equal(t, "price-asc", c.q.Sort)

	// The pending debounce was folded into the page fetch.
	f.clock.Advance(time.Second)
	assert.Never(t, func() bool { return f.src.count() > 1 }, 50*time.Millisecond, time.Millisecond)
}

func TestController_LastRequestWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.SetPage(2)
	a := f.src.await(t, 1)
	f.ctrl.SetPage(3)
	b := f.src.await(t, 2)

	b.ok([]string{"B"}, 30, 4)
	s := f.waitPhase(t, PhaseReady)
	assert.Equal(t, []string{"B"}, s.Items)

	a.ok([]string{"A"}, 30, 4)
	require.Eventually(t, func() bool {
		return f.counter(t, "foodhub.list.stale_responses") == 1
	}, waitFor, time.Millisecond)

	s = f.ctrl.State()
	assert.Equal(t, []string{"B"}, s.Items)
	assert.Equal(t, 3, s.Page)
}

func TestController_ErrorKeepsItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{
		ErrorMessage: func(err error) string { return "Failed to load meals" },
	})

	f.ctrl.Start()
	f.src.await(t, 1).ok([]string{"a", "b"}, 18, 2)
	f.waitPhase(t, PhaseReady)

	var (
		mu     sync.Mutex
		phases []Phase
	)
	cancel := f.ctrl.Subscribe(func(s State[string]) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	})
	defer cancel()

	f.ctrl.NextPage()
	f.src.await(t, 2).fail(errors.New("connection refused"))

	// The error is reported, then the controller rests in Idle.
	s := f.waitPhase(t, PhaseIdle)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(phases) == 3
	}, waitFor, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []Phase{PhaseLoading, PhaseError, PhaseIdle}, phases)
	mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, s.Items)
	require.Error(t, s.Err)
	assert.Equal(t, int64(1), f.counter(t, "foodhub.list.failures"))

	n, ok := f.rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.VariantDestructive, n.Variant)
	assert.Equal(t, "Failed to load meals", n.Description)

	// Any later page change retries.
	f.ctrl.SetPage(2)
	f.src.await(t, 3).ok([]string{"c"}, 18, 2)
	s = f.waitPhase(t, PhaseReady)
	assert.NoError(t, s.Err)
	assert.Equal(t, []string{"c"}, s.Items)
}

func TestController_NextPrevBounds(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.Start()
	f.src.await(t, 1).ok([]string{"a"}, 1, 1)
	f.waitPhase(t, PhaseReady)

	f.ctrl.NextPage()
	f.ctrl.PrevPage()
	assert.Never(t, func() bool { return f.src.count() > 1 }, 50*time.Millisecond, time.Millisecond)
}

func TestController_OutOfRangePageForwarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.SetPage(99)
	c := f.src.await(t, 1)
	assert.Equal(t, 99, c.q.Page)
	c.ok(nil, 20, 3)

	s := f.waitPhase(t, PhaseReady)
	assert.Empty(t, s.Items)
	assert.Equal(t, 99, s.Page)
}

func TestController_ClearFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{Initial: Query{Filters: map[string][]string{"dietary": {"Vegan"}}}})

	f.ctrl.SetFilter("dietary")
	assert.Empty(t, f.ctrl.Query().Filters)
}

func TestController_Subscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	var (
		mu     sync.Mutex
		phases []Phase
	)
	cancel := f.ctrl.Subscribe(func(s State[string]) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	})
	defer cancel()

	f.ctrl.Start()
	f.src.await(t, 1).ok([]string{"a"}, 1, 1)
	f.waitPhase(t, PhaseReady)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(phases) == 2
	}, waitFor, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []Phase{PhaseLoading, PhaseReady}, phases)
	mu.Unlock()
}

func TestController_SubscribersSeeTransitionOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	var (
		once    sync.Once
		entered = make(chan struct{})
		release = make(chan struct{})
		mu      sync.Mutex
		seen    []State[string]
	)
	f.ctrl.Subscribe(func(s State[string]) {
		if s.Phase == PhaseReady {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})
	f.ctrl.Subscribe(func(s State[string]) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})

	f.ctrl.Start()
	f.src.await(t, 1).ok([]string{"a"}, 1, 1)
	<-entered

	// The Ready delivery is still in flight when the search edit lands.
	f.ctrl.SetSearch("pizza")
	close(release)

	want := f.ctrl.State()
	require.Equal(t, PhasePendingDebounce, want.Phase)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	phases := make([]Phase, len(seen))
	for i, s := range seen {
		phases[i] = s.Phase
	}
	assert.Equal(t, []Phase{PhaseLoading, PhaseReady, PhasePendingDebounce}, phases)
	last := seen[len(seen)-1]
	assert.Equal(t, want.Phase, last.Phase)
	assert.Equal(t, "pizza", last.Query.Search)
}

func TestController_CloseStopsTimer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})

	f.ctrl.SetSearch("x")
	f.ctrl.Close()
	f.clock.Advance(time.Second)

	assert.Never(t, func() bool { return f.src.count() > 0 }, 50*time.Millisecond, time.Millisecond)
	f.ctrl.SetPage(2)
	assert.Equal(t, 0, f.src.count())
}
