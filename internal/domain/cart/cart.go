// Package cart holds the shopping cart: line items keyed by meal, derived
// totals, and persistence to a durable key-value store.
package cart

import (
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart is persisted under.
const StorageKey = "foodhub-cart"

// Item is what gets added to the cart: a meal as shown in a listing.
type Item struct {
	ProductID  string
	Name       string
	UnitPrice  decimal.Decimal
	Image      string
	ProviderID string
}

// Line is a single cart entry. ID equals ProductID; Quantity is always >= 1.
type Line struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"mealId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Image      string          `json:"image,omitempty"`
	Quantity   int             `json:"quantity"`
	ProviderID string          `json:"providerId"`
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a read-only view of the cart. Lines are in first-add order.
type Snapshot struct {
	Lines []Line
	Total decimal.Decimal
	Count int
}

// Empty reports whether the cart has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// ProviderIDs returns the distinct sellers in first-seen order.
func (s Snapshot) ProviderIDs() []string {
	return providerIDs(s.Lines)
}

func newSnapshot(lines []Line) Snapshot {
	out := Snapshot{
		Lines: make([]Line, len(lines)),
		Total: decimal.Zero,
	}
	copy(out.Lines, lines)
	for _, l := range lines {
		out.Total = out.Total.Add(l.Subtotal())
		out.Count += l.Quantity
	}
	return out
}

func providerIDs(lines []Line) []string {
	seen := make(map[string]struct{}, 1)
	var ids []string
	for _, l := range lines {
		if _, ok := seen[l.ProviderID]; ok {
			continue
		}
		seen[l.ProviderID] = struct{}{}
		ids = append(ids, l.ProviderID)
	}
	return ids
}

// normalize drops lines that break the invariants and merges duplicates
// into the first occurrence.
func normalize(in []Line) []Line {
	out := make([]Line, 0, len(in))
	index := make(map[string]int, len(in))
	for _, l := range in {
		if l.ProductID == "" {
			l.ProductID = l.ID
		}
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		l.ID = l.ProductID
		if i, ok := index[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}
