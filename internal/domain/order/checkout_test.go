package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/domain/cart"
	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/validate"
)

func TestForm_DeliveryAddress(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12 Analytical St, London, N1 9GU, UK", validForm().DeliveryAddress())
}

func TestForm_Validate(t *testing.T) {
	t.Parallel()

	f := validForm()
	f.PaymentMethod = PaymentCOD
	require.NoError(t, f.Validate())

	f.ZipCode = "N1"
	f.PaymentMethod = "CARD"
	var verr *validate.Error
	require.ErrorAs(t, f.Validate(), &verr)
	assert.Equal(t, "Zip code is required", verr.Fields["zipCode"])
	assert.Contains(t, verr.Fields, "paymentMethod")
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	c := newCart(t, burger("p1"), fries("p1"))
	c.AddItem(context.Background(), burger("p1"), 2)

	req, err := BuildRequest(c.Snapshot(), validForm())
	require.NoError(t, err)

	assert.Equal(t, "p1", req.ProviderID)
	assert.Equal(t, "12 Analytical St, London, N1 9GU, UK", req.DeliveryAddress)
	// 3 x 5.00 + 1 x 2.50 + 5.00 delivery
	assert.Equal(t, "22.50", req.TotalAmount.StringFixed(2))
	require.Len(t, req.Items, 2)
	assert.Equal(t, "m1", req.Items[0].MealID)
	assert.Equal(t, 3, req.Items[0].Quantity)
	assert.Equal(t, "5.00", req.Items[0].Price.StringFixed(2))
}

func TestCheckout_PlaceOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		items     []cart.Item
		form      func() Form
		apiErr    error
		wantErr   error
		wantValid bool
		wantCalls int
		wantTitle string
		wantDesc  string
		wantEmpty bool
	}{
		{
			name:      "success clears cart",
			items:     []cart.Item{burger("p1"), fries("p1")},
			wantCalls: 1,
			wantTitle: "Order Placed Successfully!",
			wantEmpty: true,
		},
		{
			name:      "empty cart",
			wantErr:   ErrEmptyCart,
			wantTitle: "Cart is empty",
			wantEmpty: true,
		},
		{
			name:      "multiple providers",
			items:     []cart.Item{burger("p1"), fries("p2")},
			wantErr:   ErrMultipleProviders,
			wantTitle: "Multiple Providers Detected",
		},
		{
			name:  "invalid form",
			items: []cart.Item{burger("p1")},
			form: func() Form {
				f := validForm()
				f.Address = "x"
				return f
			},
			wantValid: true,
		},
		{
			name:      "api message surfaced and cart kept",
			items:     []cart.Item{burger("p1")},
			apiErr:    apiMessage("Meal Burger is no longer available"),
			wantCalls: 1,
			wantTitle: "Error",
			wantDesc:  "Meal Burger is no longer available",
		},
		{
			name:      "network failure uses fallback",
			items:     []cart.Item{burger("p1")},
			apiErr:    errors.New("dial tcp: connection refused"),
			wantCalls: 1,
			wantTitle: "Error",
			wantDesc:  "Failed to place order. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &mockAPI{placeErr: tt.apiErr}
			rec := &notify.Recorder{}
			c := newCart(t, tt.items...)
			co := NewCheckout(api, c, rec, zap.NewNop())
			co.newKey = func() string { return "key-1" }

			form := validForm()
			if tt.form != nil {
				form = tt.form()
			}

			o, err := co.PlaceOrder(context.Background(), form)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantValid:
				var verr *validate.Error
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, "address")
			case tt.apiErr != nil:
				require.ErrorIs(t, err, tt.apiErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "o1", o.ID)
				assert.Equal(t, []string{"key-1"}, api.keys)
			}

			assert.Len(t, api.placed, tt.wantCalls)
			assert.Equal(t, tt.wantEmpty, c.Snapshot().Empty())

			if tt.wantTitle != "" {
				n, ok := rec.Last()
				require.True(t, ok)
				assert.Equal(t, tt.wantTitle, n.Title)
				if tt.wantDesc != "" {
					assert.Equal(t, tt.wantDesc, n.Description)
				}
			}
		})
	}
}

func TestCheckout_FreshKeyPerSubmission(t *testing.T) {
	t.Parallel()
	api := &mockAPI{placeErr: errors.New("timeout")}
	c := newCart(t, burger("p1"))
	co := NewCheckout(api, c, nil, nil)

	_, _ = co.PlaceOrder(context.Background(), validForm())
	_, _ = co.PlaceOrder(context.Background(), validForm())

	require.Len(t, api.keys, 2)
	assert.NotEmpty(t, api.keys[0])
	assert.NotEqual(t, api.keys[0], api.keys[1])
}
