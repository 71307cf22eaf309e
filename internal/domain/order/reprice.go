package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/foodhub-client/internal/domain/cart"
	"github.com/xenking/foodhub-client/internal/domain/meal"
)

// DefaultRepriceConcurrency bounds parallel meal lookups.
const DefaultRepriceConcurrency = 4

// MealGetter looks up a single meal.
type MealGetter interface {
	GetMeal(ctx context.Context, id string) (*meal.Meal, error)
}

// PriceChange is a cart line whose meal now costs something else.
type PriceChange struct {
	Line     cart.Line
	NewPrice decimal.Decimal
}

// RepriceReport compares cart lines with the live catalogue.
type RepriceReport struct {
	Changed     []PriceChange
	Unavailable []cart.Line
	Missing     []cart.Line
}

// Clean reports whether every line still matches the catalogue.
func (r RepriceReport) Clean() bool {
	return len(r.Changed) == 0 && len(r.Unavailable) == 0 && len(r.Missing) == 0
}

// Reprice looks up every line's meal concurrently, at most limit at a time,
// and reports the lines that no longer match. Report slices follow line
// order. Any lookup error other than meal.ErrNotFound aborts.
func Reprice(ctx context.Context, meals MealGetter, lines []cart.Line, limit int) (RepriceReport, error) {
	if limit <= 0 {
		limit = DefaultRepriceConcurrency
	}

	found := make([]*meal.Meal, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, l := range lines {
		g.Go(func() error {
			m, err := meals.GetMeal(gctx, l.ProductID)
			if errors.Is(err, meal.ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "get meal %s", l.ProductID)
			}
			found[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RepriceReport{}, err
	}

	var r RepriceReport
	for i, l := range lines {
		m := found[i]
		switch {
		case m == nil:
			r.Missing = append(r.Missing, l)
		case !m.IsAvailable:
			r.Unavailable = append(r.Unavailable, l)
		case !m.Price.Equal(l.UnitPrice):
			r.Changed = append(r.Changed, PriceChange{Line: l, NewPrice: m.Price})
		}
	}
	return r, nil
}
