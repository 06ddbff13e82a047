package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// OrderLedger owns durable order records and their lifecycle.
type OrderLedger struct {
	orders repository.OrderRepository
	log    *zap.Logger
}

func NewOrderLedger(orders repository.OrderRepository, log *zap.Logger) *OrderLedger {
	return &OrderLedger{
		orders: orders,
		log:    log,
	}
}

// CreateOrder writes the order in status initiated. For authenticated
// owners the write also appends the owner's order index and consumes the
// cart, atomically: a failure leaves no partial state behind.
func (l *OrderLedger) CreateOrder(ctx context.Context, customer domain.Customer, receipt *domain.Receipt, authenticated bool) (*domain.Order, error) {
	if customer.Email == "" {
		return nil, fmt.Errorf("%w: customer email is required", domain.ErrValidation)
	}
	if receipt == nil || len(receipt.Items) == 0 {
		return nil, fmt.Errorf("%w: receipt has no items", domain.ErrValidation)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        ulid.Make().String(),
		Owner:     customer.Email,
		Customer:  customer,
		Receipt:   *receipt,
		Status:    domain.OrderStatusInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.orders.CreateOrder(ctx, order, authenticated); err != nil {
		l.log.Error("order creation failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: create order: %v", domain.ErrPersistence, err)
	}

	l.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("owner", order.Owner),
		zap.String("total", order.Receipt.Total.String()),
		zap.Bool("authenticated", authenticated))

	return order, nil
}

func (l *OrderLedger) GetOrder(ctx context.Context, ref domain.OrderRef) (*domain.Order, error) {
	order, err := l.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get order: %v", domain.ErrPersistence, err)
	}
	return order, nil
}

func (l *OrderLedger) ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error) {
	orders, err := l.orders.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", domain.ErrPersistence, err)
	}
	return orders, nil
}

// ListByStatus serves the admin status scan, newest-first.
func (l *OrderLedger) ListByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error) {
	switch status {
	case domain.OrderStatusInitiated, domain.OrderStatusPaid, domain.OrderStatusShipped,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	orders, err := l.orders.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders by status: %v", domain.ErrPersistence, err)
	}
	return orders, nil
}
