// Package listquery implements the "filter, paginate, fetch, display" loop
// shared by every list view: a Query describing what to show, a Source that
// answers it, and a Controller that debounces edits and applies only the
// newest answer.
package listquery

import (
	"context"
	"maps"
	"slices"
	"sort"
)

// DefaultPageSize is used when a view does not pick one.
const DefaultPageSize = 9

// Query describes one page of a list. Empty Search and Filters mean no
// constraint. Page is 1-based.
type Query struct {
	Search   string
	Filters  map[string][]string
	Sort     string
	Page     int
	PageSize int
}

// Filter returns the values selected for name.
func (q Query) Filter(name string) []string {
	return q.Filters[name]
}

// FilterNames returns filter names with at least one value, sorted.
func (q Query) FilterNames() []string {
	names := make([]string, 0, len(q.Filters))
	for name, values := range q.Filters {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of q.
func (q Query) Clone() Query {
	out := q
	if q.Filters != nil {
		out.Filters = make(map[string][]string, len(q.Filters))
		for k, v := range q.Filters {
			out.Filters[k] = slices.Clone(v)
		}
	}
	return out
}

// Equal reports whether q and o select the same page. Filter value order is
// ignored.
func (q Query) Equal(o Query) bool {
	if q.Search != o.Search || q.Sort != o.Sort || q.Page != o.Page || q.PageSize != o.PageSize {
		return false
	}
	return maps.EqualFunc(nonEmpty(q.Filters), nonEmpty(o.Filters), func(a, b []string) bool {
		return slices.Equal(sorted(a), sorted(b))
	})
}

func nonEmpty(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		if len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

func sorted(v []string) []string {
	v = slices.Clone(v)
	slices.Sort(v)
	return v
}

// Result is one page returned by a Source.
type Result[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
}

// Source answers list queries.
type Source[T any] interface {
	Fetch(ctx context.Context, q Query) (Result[T], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

// Fetch calls f(ctx, q).
func (f SourceFunc[T]) Fetch(ctx context.Context, q Query) (Result[T], error) {
	return f(ctx, q)
}

// TotalPages returns the number of pages needed for totalItems at pageSize.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Phase is the controller's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePendingDebounce
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePendingDebounce:
		return "pending"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a view renders. Query is the query that will be (or was
// last) issued; Items and the totals belong to the last applied result.
type State[T any] struct {
	Phase      Phase
	Query      Query
	Items      []T
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
	// Err is the last fetch failure. It is cleared by the next success.
	Err error
}

// Failed reports whether the last fetch failed and nothing newer is
// pending or loading.
func (s State[T]) Failed() bool {
	return s.Err != nil && (s.Phase == PhaseError || s.Phase == PhaseIdle)
}

// ShowPagination reports whether pagination controls should be displayed.
func (s State[T]) ShowPagination() bool {
	return s.TotalPages > 1
}

// HasNext reports whether a page after the current one exists.
func (s State[T]) HasNext() bool {
	return s.Query.Page < s.TotalPages
}

// HasPrev reports whether a page before the current one exists.
func (s State[T]) HasPrev() bool {
	return s.Query.Page > 1
}
