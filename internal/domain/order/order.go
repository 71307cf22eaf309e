package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/meal"
)

// Status is an order's position in the fulfilment pipeline.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var forward = map[Status]Status{
	StatusPlaced:    StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusDelivered,
}

// NextStatus returns the single forward step from s, if any.
func NextStatus(s Status) (Status, bool) {
	next, ok := forward[s]
	return next, ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// TransitionError indicates a status change the pipeline does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

// CheckTransition accepts the single forward step and cancellation of a
// placed order. Everything else is a *TransitionError.
func CheckTransition(from, to Status) error {
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	if from == StatusPlaced && to == StatusCancelled {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// Order is a placed order as returned by the API.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	ProviderID      string          `json:"providerId"`
	DeliveryAddress string          `json:"deliveryAddress"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Item is a single line of an order, priced at order time.
type Item struct {
	ID       string          `json:"id,omitempty"`
	OrderID  string          `json:"orderId,omitempty"`
	MealID   string          `json:"mealId"`
	Meal     *meal.Meal      `json:"meal,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PlaceRequest is the payload submitted at checkout.
type PlaceRequest struct {
	ProviderID      string          `json:"providerId"`
	DeliveryAddress string          `json:"deliveryAddress"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Items           []PlaceItem     `json:"items"`
}

// PlaceItem is one line of a PlaceRequest.
type PlaceItem struct {
	MealID   string          `json:"mealId"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Scope selects whose orders a listing returns.
type Scope int

const (
	// ScopeMine lists the signed-in customer's orders.
	ScopeMine Scope = iota
	// ScopeProvider lists orders received by the signed-in provider.
	ScopeProvider
	// ScopeAll lists every order. Admin only.
	ScopeAll
)

// API is the remote order service.
type API interface {
	PlaceOrder(ctx context.Context, req PlaceRequest, idempotencyKey string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status Status) (*Order, error)
	CancelOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, scope Scope, q listquery.Query) (listquery.Result[Order], error)
}
