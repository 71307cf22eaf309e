package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub-client/internal/domain/order"
)

// ProviderStats are the headline numbers of a provider's dashboard.
type ProviderStats struct {
	TotalMeals      int             `json:"totalMeals"`
	AvailableMeals  int             `json:"availableMeals"`
	TotalOrders     int             `json:"totalOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	CompletedOrders int             `json:"completedOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalReviews    int             `json:"totalReviews"`
	AverageRating   float64         `json:"averageRating"`
}

// ProviderDashboard is the answer of GET /providers/dashboard/stats.
type ProviderDashboard struct {
	Stats        ProviderStats `json:"stats"`
	RecentOrders []order.Order `json:"recentOrders"`
}

// AdminDashboard is the answer of GET /admin/dashboard/stats.
type AdminDashboard struct {
	Users struct {
		Total     int `json:"total"`
		Customers int `json:"customers"`
		Providers int `json:"providers"`
		Admins    int `json:"admins"`
		Active    int `json:"active"`
		Suspended int `json:"suspended"`
	} `json:"users"`
	Orders struct {
		Total     int `json:"total"`
		Placed    int `json:"placed"`
		Preparing int `json:"preparing"`
		Ready     int `json:"ready"`
		Delivered int `json:"delivered"`
		Cancelled int `json:"cancelled"`
	} `json:"orders"`
	Revenue struct {
		Total decimal.Decimal `json:"total"`
	} `json:"revenue"`
	Meals struct {
		Total     int `json:"total"`
		Available int `json:"available"`
	} `json:"meals"`
	Categories struct {
		Total int `json:"total"`
	} `json:"categories"`
	Reviews struct {
		Total         int     `json:"total"`
		AverageRating float64 `json:"averageRating"`
	} `json:"reviews"`
	RecentOrders []order.Order `json:"recentOrders"`
}

// ProviderStats returns the signed-in provider's dashboard.
func (c *Client) ProviderStats(ctx context.Context) (*ProviderDashboard, error) {
	return getDashboard[ProviderDashboard](ctx, c, "/providers/dashboard/stats")
}

// AdminStats returns the platform dashboard. Admin only.
func (c *Client) AdminStats(ctx context.Context) (*AdminDashboard, error) {
	return getDashboard[AdminDashboard](ctx, c, "/admin/dashboard/stats")
}

// getDashboard decodes a dashboard answer. The dashboards are served bare
// rather than inside the {data} envelope; both shapes are accepted.
func getDashboard[T any](ctx context.Context, c *Client, path string) (*T, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	body := data
	if len(env.Data) > 0 && env.Data.Type() == jx.Object {
		body = env.Data
	}
	out := new(T)
	if err := json.Unmarshal(body, out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return out, nil
}
