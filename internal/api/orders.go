package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/order"
)

// HeaderIdempotencyKey deduplicates order submissions.
const HeaderIdempotencyKey = "Idempotency-Key"

var _ order.API = (*Client)(nil)

// ListOrders returns one page of orders. Customers and providers share an
// endpoint that the API scopes by the session's role; ScopeAll is the admin
// view of every order.
func (c *Client) ListOrders(ctx context.Context, scope order.Scope, q listquery.Query) (listquery.Result[order.Order], error) {
	path := "/orders/my-orders"
	if scope == order.ScopeAll {
		path = "/admin/orders"
	}
	return list[order.Order](ctx, c, path, ListParams(q), q)
}

// PlaceOrder submits an order. A non-empty idempotencyKey is sent so that a
// retried submission does not create a second order.
func (c *Client) PlaceOrder(ctx context.Context, req order.PlaceRequest, idempotencyKey string) (*order.Order, error) {
	r := request{
		method: http.MethodPost,
		path:   "/orders",
		body:   placeOrderBody(req),
	}
	if idempotencyKey != "" {
		r.header = http.Header{HeaderIdempotencyKey: {idempotencyKey}}
	}
	return getOne[order.Order](ctx, c, r)
}

// UpdateOrderStatus moves an order to status. Provider only.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	return getOne[order.Order](ctx, c, request{
		method: http.MethodPatch,
		path:   "/orders/" + escape(id) + "/status",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("status")
			e.Str(string(status))
			e.ObjEnd()
		},
	})
}

// CancelOrder cancels a placed order.
func (c *Client) CancelOrder(ctx context.Context, id string) (*order.Order, error) {
	return getOne[order.Order](ctx, c, request{
		method: http.MethodPatch,
		path:   "/orders/" + escape(id) + "/cancel",
	})
}

func placeOrderBody(req order.PlaceRequest) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("providerId")
		e.Str(req.ProviderID)
		e.FieldStart("deliveryAddress")
		e.Str(req.DeliveryAddress)
		e.FieldStart("totalAmount")
		writeDecimal(e, req.TotalAmount)
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range req.Items {
			e.ObjStart()
			e.FieldStart("mealId")
			e.Str(it.MealID)
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.FieldStart("price")
			writeDecimal(e, it.Price)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	}
}
