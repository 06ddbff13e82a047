package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// Session is what the client needs to open the gateway checkout widget.
type Session struct {
	GatewayOrderID string  `json:"order_id"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	Prefill        Prefill `json:"prefill"`
}

type Prefill struct {
	Email   string `json:"email"`
	Contact string `json:"contact,omitempty"`
}

// PaymentSession binds orders to gateway checkout sessions. An order gets
// at most one gateway order id for its whole life.
type PaymentSession struct {
	orders   repository.OrderRepository
	gw       PaymentGateway
	currency string
	log      *zap.Logger
}

func NewPaymentSession(orders repository.OrderRepository, gw PaymentGateway, currency string, log *zap.Logger) *PaymentSession {
	return &PaymentSession{
		orders:   orders,
		gw:       gw,
		currency: currency,
		log:      log,
	}
}

// GetOrCreateSession returns the gateway session for the order, creating
// one on first call. Repeated calls return the same gateway order id; the
// conditional store write closes the race between two concurrent first
// calls.
func (s *PaymentSession) GetOrCreateSession(ctx context.Context, ref domain.OrderRef) (*Session, error) {
	order, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get order: %v", domain.ErrPersistence, err)
	}

	if order.GatewayOrderID != "" {
		return s.session(order, order.GatewayOrderID), nil
	}

	gwOrder, err := s.gw.CreateOrder(ctx, order.Receipt.AmountMinorUnits(), s.currency, receiptRef(order.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: create gateway order: %v", domain.ErrGateway, err)
	}
	if gwOrder.Status != gateway.OrderStatusCreated {
		return nil, fmt.Errorf("%w: gateway order in status %q", domain.ErrGateway, gwOrder.Status)
	}

	applied, err := s.orders.SetGatewayOrderID(ctx, ref.Owner, ref.OrderID, gwOrder.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bind gateway order: %v", domain.ErrPersistence, err)
	}
	if !applied {
		// Lost the race to a concurrent session request; the id that won
		// is the one the order keeps. Our gateway order is abandoned.
		stored, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: reread order: %v", domain.ErrPersistence, err)
		}
		s.log.Info("discarding gateway order after losing session race",
			zap.String("order_id", order.ID),
			zap.String("abandoned", gwOrder.ID),
			zap.String("kept", stored.GatewayOrderID))
		return s.session(stored, stored.GatewayOrderID), nil
	}

	s.log.Info("gateway session created",
		zap.String("order_id", order.ID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount", gwOrder.Amount))

	return s.session(order, gwOrder.ID), nil
}

func (s *PaymentSession) session(order *domain.Order, gatewayOrderID string) *Session {
	return &Session{
		GatewayOrderID: gatewayOrderID,
		Amount:         order.Receipt.AmountMinorUnits(),
		Currency:       s.currency,
		Description:    receiptRef(order.ID),
		Prefill: Prefill{
			Email:   order.Customer.Email,
			Contact: order.Customer.Phone,
		},
	}
}

func receiptRef(orderID string) string {
	return "order:" + orderID
}
