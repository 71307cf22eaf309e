package notify

import "sync"

// Feed fans values out to subscribers in the order they were queued.
//
// The owner calls Queue while still holding the lock that guards the value,
// so queue order equals state order, and Flush after releasing it. Only one
// goroutine delivers at a time; a Flush that finds delivery in progress
// returns and leaves its values to the active deliverer. Subscribers may
// call back into the owner, including mutating it.
type Feed[S any] struct {
	mu         sync.Mutex
	nextID     int
	subs       map[int]func(S)
	order      []int
	pending    []S
	delivering bool
}

// Subscribe registers fn. The returned function unregisters it.
func (f *Feed[S]) Subscribe(fn func(S)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs == nil {
		f.subs = make(map[int]func(S))
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.order = append(f.order, id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		for i, v := range f.order {
			if v == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Queue appends v to the delivery queue.
func (f *Feed[S]) Queue(v S) {
	f.mu.Lock()
	f.pending = append(f.pending, v)
	f.mu.Unlock()
}

// Flush delivers queued values unless another goroutine already is.
func (f *Feed[S]) Flush() {
	f.mu.Lock()
	if f.delivering {
		f.mu.Unlock()
		return
	}
	f.delivering = true
	defer func() {
		f.delivering = false
		f.mu.Unlock()
	}()

	for len(f.pending) > 0 {
		v := f.pending[0]
		var zero S
		f.pending[0] = zero
		f.pending = f.pending[1:]

		fns := make([]func(S), 0, len(f.order))
		for _, id := range f.order {
			fns = append(fns, f.subs[id])
		}

		f.mu.Unlock()
		f.deliver(fns, v)
		f.mu.Lock()
	}
}

// deliver re-takes mu if a subscriber panics so Flush's deferred reset
// runs with the lock held.
func (f *Feed[S]) deliver(fns []func(S), v S) {
	ok := false
	defer func() {
		if !ok {
			f.mu.Lock()
		}
	}()
	for _, fn := range fns {
		fn(v)
	}
	ok = true
}
