package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/domain/cart"
	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/validate"
)

// DeliveryFee is added to every order total.
var DeliveryFee = decimal.RequireFromString("5.00")

// PaymentCOD is cash on delivery, the only payment method.
const PaymentCOD = "COD"

// Sentinel errors for checkout.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMultipleProviders = errors.New("cart holds meals from more than one provider")
)

// Form is the delivery and contact details collected at checkout.
type Form struct {
	Name          string `json:"name" validate:"min=2" msg:"Name is required"`
	Email         string `json:"email" validate:"email" msg:"Invalid email address"`
	Address       string `json:"address" validate:"min=5" msg:"Address is required"`
	City          string `json:"city" validate:"min=2" msg:"City is required"`
	ZipCode       string `json:"zipCode" validate:"min=3" msg:"Zip code is required"`
	Country       string `json:"country" validate:"min=2" msg:"Country is required"`
	PaymentMethod string `json:"paymentMethod" validate:"eq=COD" msg:"Only cash on delivery is supported"`
}

// Validate checks the form rules.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// DeliveryAddress joins the address parts the way the API stores them.
func (f Form) DeliveryAddress() string {
	return strings.Join([]string{f.Address, f.City, f.ZipCode, f.Country}, ", ")
}

// Cart is the part of the cart checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context)
}

// Placer submits orders.
type Placer interface {
	PlaceOrder(ctx context.Context, req PlaceRequest, idempotencyKey string) (*Order, error)
}

// Checkout turns the cart into an order.
type Checkout struct {
	api    Placer
	cart   Cart
	nt     notify.Notifier
	lg     *zap.Logger
	newKey func() string
}

// NewCheckout creates a Checkout over the given cart.
func NewCheckout(api Placer, c Cart, nt notify.Notifier, lg *zap.Logger) *Checkout {
	if nt == nil {
		nt = notify.Discard
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Checkout{
		api:    api,
		cart:   c,
		nt:     nt,
		lg:     lg,
		newKey: uuid.NewString,
	}
}

// BuildRequest builds the order payload for snap. The cart must be
// non-empty and hold meals from a single provider.
func BuildRequest(snap cart.Snapshot, form Form) (PlaceRequest, error) {
	if snap.Empty() {
		return PlaceRequest{}, ErrEmptyCart
	}
	providers := snap.ProviderIDs()
	if len(providers) > 1 {
		return PlaceRequest{}, ErrMultipleProviders
	}

	items := make([]PlaceItem, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = PlaceItem{
			MealID:   l.ProductID,
			Quantity: l.Quantity,
			Price:    l.UnitPrice,
		}
	}

	return PlaceRequest{
		ProviderID:      providers[0],
		DeliveryAddress: form.DeliveryAddress(),
		TotalAmount:     snap.Total.Add(DeliveryFee),
		Items:           items,
	}, nil
}

// PlaceOrder validates form, submits the cart and clears it on success. On
// failure the cart is left intact and the user is notified.
func (c *Checkout) PlaceOrder(ctx context.Context, form Form) (*Order, error) {
	if form.PaymentMethod == "" {
		form.PaymentMethod = PaymentCOD
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	req, err := BuildRequest(c.cart.Snapshot(), form)
	switch {
	case errors.Is(err, ErrEmptyCart):
		c.nt.Notify(notify.Failure("Cart is empty",
			"Please add items to your cart before checking out."))
		return nil, err
	case errors.Is(err, ErrMultipleProviders):
		c.nt.Notify(notify.Failure("Multiple Providers Detected",
			"Currently, we only support orders from a single provider. "+
				"Please clear your cart and order from one provider at a time."))
		return nil, err
	case err != nil:
		return nil, err
	}

	key := c.newKey()
	o, err := c.api.PlaceOrder(ctx, req, key)
	if err != nil {
		c.lg.Warn("Failed to place order",
			zap.String("provider_id", req.ProviderID),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		c.nt.Notify(notify.Failure("Error",
			notify.Message(err, "Failed to place order. Please try again.")))
		return nil, errors.Wrap(err, "place order")
	}

	c.cart.Clear(ctx)
	c.lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("total", req.TotalAmount.StringFixed(2)),
	)
	c.nt.Notify(notify.Info("Order Placed Successfully!",
		"Your order has been received and is being processed."))
	return o, nil
}
