package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
)

// TestOrderLifecycle drives a full checkout through the services the way
// the HTTP layer does: price the cart, create the order, open a payment
// session twice, settle the gateway callback, then refund.
func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	carts := &MockCartRepository{
		Carts: map[string]*domain.Cart{
			"jane@example.com": {
				Owner: "jane@example.com",
				Items: []domain.CartItem{{Category: "shoes", ItemID: "A1", Quantity: 2}},
			},
		},
	}
	orders := &MockOrderRepository{Carts: carts}
	gw := &MockGateway{Secret: testSecret, NextGatewayOrderID: "gw_1"}
	audit := &MockAuditPublisher{}

	resolver := NewSnapshotResolver(carts, staticCatalog{
		"shoes-A1": {Category: "shoes", ItemID: "A1", Title: "Runner", Price: decimal.NewFromInt(500)},
	})
	ledger := NewOrderLedger(orders, log)
	sessions := NewPaymentSession(orders, gw, "INR", log)
	settlement := NewSettlement(orders, gw, audit, log)

	// Checkout: the receipt is priced from the catalog and the cart is
	// consumed with the order write.
	receipt, err := resolver.Resolve(ctx, "jane@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "1000", receipt.Total.String())

	order, err := ledger.CreateOrder(ctx,
		domain.Customer{Name: "Jane", Email: "jane@example.com"}, receipt, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInitiated, order.Status)
	assert.NotContains(t, carts.Carts, "jane@example.com")

	ref := domain.OrderRef{Owner: order.Owner, OrderID: order.ID}

	// Two session requests, one gateway order.
	session, err := sessions.GetOrCreateSession(ctx, ref)
	require.NoError(t, err)
	again, err := sessions.GetOrCreateSession(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "gw_1", session.GatewayOrderID)
	assert.Equal(t, session.GatewayOrderID, again.GatewayOrderID)
	assert.Equal(t, int64(100000), session.Amount)
	assert.Equal(t, 1, gw.CreateOrderCalls)

	// The gateway captures the charge and posts back.
	gw.Payments = map[string]*gateway.Payment{
		"pay_1": {
			ID:          "pay_1",
			OrderID:     "gw_1",
			Status:      gateway.PaymentStatusCaptured,
			Amount:      session.Amount,
			Email:       order.Owner,
			Description: session.Description,
		},
	}
	paid, err := settlement.ConfirmPayment(ctx, Callback{
		GatewayOrderID: "gw_1",
		PaymentID:      "pay_1",
		Signature:      gateway.SignPayload("gw_1", "pay_1", testSecret),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)

	// History shows the paid order, newest-first.
	history, err := ledger.ListByOwner(ctx, order.Owner)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPaid, history[0].Status)

	// Customer cancels; the refund is issued for the full captured amount
	// and the order terminates.
	cancelled, err := settlement.CancelOrder(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "rfnd_1", cancelled.RefundID)
	assert.Equal(t, 1, gw.RefundCalls)

	events := audit.Published()
	require.Len(t, events, 2)
	assert.Equal(t, domain.OrderStatusPaid, events[0].To)
	assert.Equal(t, domain.OrderStatusCancelled, events[1].To)
}
