package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/storage"
)

// Store is the cart. All operations are total: persistence failures are
// logged and never returned. The in-memory state is updated before it is
// persisted.
type Store struct {
	kv  storage.KV
	nt  notify.Notifier
	lg  *zap.Logger
	key string

	mu    sync.Mutex
	lines []Line

	feed notify.Feed[Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key. Used to keep carts of several customers
// apart in a shared backend.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore returns an empty cart backed by kv. Call Load to rehydrate it.
func NewStore(kv storage.KV, nt notify.Notifier, lg *zap.Logger, opts ...Option) *Store {
	if nt == nil {
		nt = notify.Discard
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &Store{
		kv:   kv,
		nt:   nt,
		lg:   lg,
		key:  StorageKey,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory cart with the persisted one. A missing entry
// yields an empty cart; a malformed one is logged and yields an empty cart.
// Mutations issued while Load runs are applied after it.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.lines = s.read(ctx)
	s.feed.Queue(newSnapshot(s.lines))
	s.mu.Unlock()

	s.feed.Flush()
}

func (s *Store) read(ctx context.Context) []Line {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.lg.Warn("Failed to read cart", zap.String("key", s.key), zap.Error(err))
		}
		return nil
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		s.lg.Warn("Discarding malformed cart", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	return normalize(lines)
}

// AddItem adds quantity units of item. A non-positive quantity counts as 1.
// An existing line for the same meal is increased in place.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	s.mutate(ctx, func(lines []Line) []Line {
		if i := indexOf(lines, item.ProductID); i >= 0 {
			lines[i].Quantity += quantity
			return lines
		}
		return append(lines, Line{
			ID:         item.ProductID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Image:      item.Image,
			Quantity:   quantity,
			ProviderID: item.ProviderID,
		})
	})

	s.nt.Notify(notify.Info(
		"Added to cart",
		fmt.Sprintf("%d x %s has been added to your cart.", quantity, item.Name),
	))
}

// RemoveItem deletes the line for id. Removing an absent line is a no-op
// but still persists.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mutate(ctx, func(lines []Line) []Line {
		return slices.DeleteFunc(lines, func(l Line) bool { return l.ID == id })
	})
}

// SetQuantity replaces the quantity of the line for id. A quantity below 1
// removes the line.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) {
	if quantity < 1 {
		s.RemoveItem(ctx, id)
		return
	}
	s.mutate(ctx, func(lines []Line) []Line {
		if i := indexOf(lines, id); i >= 0 {
			lines[i].Quantity = quantity
		}
		return lines
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func([]Line) []Line { return nil })
}

// Replace swaps the whole cart for lines, normalized the same way as a
// loaded cart.
func (s *Store) Replace(ctx context.Context, lines []Line) {
	lines = normalize(slices.Clone(lines))
	s.mutate(ctx, func([]Line) []Line { return lines })
}

// Snapshot returns the current lines with freshly computed totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSnapshot(s.lines)
}

// ProviderIDs returns the distinct sellers in the cart.
func (s *Store) ProviderIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return providerIDs(s.lines)
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	return s.feed.Subscribe(fn)
}

func (s *Store) mutate(ctx context.Context, fn func([]Line) []Line) {
	s.mu.Lock()
	s.lines = fn(s.lines)
	snap := newSnapshot(s.lines)
	s.persist(ctx, snap.Lines)
	s.feed.Queue(snap)
	s.mu.Unlock()

	s.feed.Flush()
}

// persist is called with mu held so that writes reach the store in
// mutation order.
func (s *Store) persist(ctx context.Context, lines []Line) {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		s.lg.Error("Failed to encode cart", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.lg.Warn("Failed to persist cart", zap.String("key", s.key), zap.Error(err))
	}
}

func indexOf(lines []Line, id string) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ID == id })
}
