package service

import (
	"context"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// legalTransitions is the order state machine. Transitions happen only
// along these edges, enforced by conditional updates keyed on the current
// status.
var legalTransitions = map[core.OrderStatus][]core.OrderStatus{
	core.OrderStatusPending:         {core.OrderStatusAwaitingPayment, core.OrderStatusCancelled},
	core.OrderStatusAwaitingPayment: {core.OrderStatusPaid, core.OrderStatusCancelled},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to core.OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderFlow advances a customer's order through its lifecycle.
type OrderFlow struct {
	orders    core.OrderRepository
	customers core.CustomerRepository
	attempts  core.PaymentAttemptRepository
	logger    *zap.Logger
}

// NewOrderFlow creates a new order flow controller
func NewOrderFlow(orders core.OrderRepository, customers core.CustomerRepository, attempts core.PaymentAttemptRepository, logger *zap.Logger) *OrderFlow {
	return &OrderFlow{
		orders:    orders,
		customers: customers,
		attempts:  attempts,
		logger:    logger,
	}
}

// Start creates a PENDING order from matched products. It refuses when the
// customer already has an active order: one in-flight order per customer.
func (f *OrderFlow) Start(ctx context.Context, customer *core.Customer, matches []core.MatchResult) (*core.Order, error) {
	if len(matches) == 0 {
		return nil, core.Errorf(core.KindNoProductMatch, "no products to order for customer %s", customer.ID)
	}

	active, err := f.orders.GetActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, core.Errorf(core.KindIllegalTransition,
			"customer %s already has active order %s (%s)", customer.ID, active.ID, active.Status)
	}

	now := time.Now()
	orderID := uuid.New().String()

	// Single best match, quantity one. Quantity negotiation happens in
	// conversation before payment, not at order creation.
	best := matches[0]
	total := best.Product.Price
	items := []core.OrderItem{{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		ProductID:   best.Product.ID,
		ProductName: best.Product.Name,
		Quantity:    1,
		PriceAtTime: best.Product.Price,
	}}

	order := &core.Order{
		ID:          orderID,
		CustomerID:  customer.ID,
		BusinessID:  customer.BusinessID,
		Items:       items,
		TotalAmount: total,
		Status:      core.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := f.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := f.customers.SetActiveOrder(ctx, customer.ID, orderID); err != nil {
		f.logger.Warn("failed to set active order reference",
			zap.String("customer_id", customer.ID), zap.Error(err))
	}

	f.logger.Info("order created",
		zap.String("order_id", orderID),
		zap.String("customer_id", customer.ID),
		zap.Float64("total", total))
	return order, nil
}

// RequestPayment moves PENDING → AWAITING_PAYMENT once the order is
// confirmed and payment instructions are about to go out.
func (f *OrderFlow) RequestPayment(ctx context.Context, order *core.Order) error {
	ok, err := f.orders.UpdateStatus(ctx, order.ID, core.OrderStatusPending, core.OrderStatusAwaitingPayment)
	if err != nil {
		return err
	}
	if !ok {
		return core.Errorf(core.KindIllegalTransition,
			"order %s is not PENDING", order.ID)
	}
	order.Status = core.OrderStatusAwaitingPayment
	return nil
}

// MarkPaid moves AWAITING_PAYMENT → PAID. Requires a prior ACCEPTED
// payment attempt referencing the order; increments customer stats and
// clears the active-order reference.
func (f *OrderFlow) MarkPaid(ctx context.Context, order *core.Order) error {
	accepted, err := f.attempts.HasAccepted(ctx, order.ID)
	if err != nil {
		return err
	}
	if !accepted {
		return core.Errorf(core.KindIllegalTransition,
			"order %s has no accepted payment attempt", order.ID)
	}

	ok, err := f.orders.UpdateStatus(ctx, order.ID, core.OrderStatusAwaitingPayment, core.OrderStatusPaid)
	if err != nil {
		return err
	}
	if !ok {
		return core.Errorf(core.KindIllegalTransition,
			"order %s is not AWAITING_PAYMENT", order.ID)
	}
	order.Status = core.OrderStatusPaid

	if err := f.customers.IncrementStats(ctx, order.CustomerID, order.TotalAmount); err != nil {
		f.logger.Warn("failed to increment customer stats",
			zap.String("customer_id", order.CustomerID), zap.Error(err))
	}
	if err := f.customers.SetActiveOrder(ctx, order.CustomerID, ""); err != nil {
		f.logger.Warn("failed to clear active order reference",
			zap.String("customer_id", order.CustomerID), zap.Error(err))
	}

	f.logger.Info("order paid",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.TotalAmount))
	return nil
}

// Cancel is idempotent: cancelling a terminal order is a no-op. Exposed
// for explicit customer cancellation and for the external scheduler that
// expires abandoned AWAITING_PAYMENT orders.
func (f *OrderFlow) Cancel(ctx context.Context, orderID string) error {
	order, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return nil
	}

	ok, err := f.orders.UpdateStatus(ctx, orderID, order.Status, core.OrderStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		// Raced with another transition; re-read and treat terminal as done.
		current, err := f.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return nil
		}
		return core.Errorf(core.KindIllegalTransition, "order %s could not be cancelled", orderID)
	}

	if err := f.customers.SetActiveOrder(ctx, order.CustomerID, ""); err != nil {
		f.logger.Warn("failed to clear active order reference",
			zap.String("customer_id", order.CustomerID), zap.Error(err))
	}
	f.logger.Info("order cancelled", zap.String("order_id", orderID))
	return nil
}
