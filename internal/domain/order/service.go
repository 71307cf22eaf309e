package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/notify"
)

// ErrNoNextStatus is returned when advancing an order that is already
// delivered or cancelled.
var ErrNoNextStatus = errors.New("order has no next status")

// Service changes the status of existing orders. Every change is checked
// against the pipeline before a request is sent.
type Service struct {
	api API
	nt  notify.Notifier
	lg  *zap.Logger
}

// NewService creates an order Service.
func NewService(api API, nt notify.Notifier, lg *zap.Logger) *Service {
	if nt == nil {
		nt = notify.Discard
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{api: api, nt: nt, lg: lg}
}

// Advance moves o one step forward (provider "Mark as ..." action).
func (s *Service) Advance(ctx context.Context, o Order) (*Order, error) {
	next, ok := NextStatus(o.Status)
	if !ok {
		return nil, ErrNoNextStatus
	}
	return s.UpdateStatus(ctx, o, next)
}

// UpdateStatus moves o to status.
func (s *Service) UpdateStatus(ctx context.Context, o Order, status Status) (*Order, error) {
	if err := CheckTransition(o.Status, status); err != nil {
		return nil, err
	}

	updated, err := s.api.UpdateOrderStatus(ctx, o.ID, status)
	if err != nil {
		s.lg.Warn("Failed to update order status",
			zap.String("order_id", o.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		s.nt.Notify(notify.Failure("Error", notify.Message(err, "Failed to update status")))
		return nil, errors.Wrap(err, "update order status")
	}

	s.nt.Notify(notify.Info("Status Updated", fmt.Sprintf("Order status changed to %s", status)))
	return updated, nil
}

// Cancel cancels o. Only placed orders can be cancelled.
func (s *Service) Cancel(ctx context.Context, o Order) (*Order, error) {
	if err := CheckTransition(o.Status, StatusCancelled); err != nil {
		return nil, err
	}

	cancelled, err := s.api.CancelOrder(ctx, o.ID)
	if err != nil {
		s.lg.Warn("Failed to cancel order", zap.String("order_id", o.ID), zap.Error(err))
		s.nt.Notify(notify.Failure("Error",
			notify.Message(err, "Failed to cancel order. It may be too late to cancel.")))
		return nil, errors.Wrap(err, "cancel order")
	}

	s.nt.Notify(notify.Info("Order Cancelled", "Your order has been cancelled successfully."))
	return cancelled, nil
}
