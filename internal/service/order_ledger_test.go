package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

func testReceipt() *domain.Receipt {
	return &domain.Receipt{
		Total: decimal.NewFromInt(1000),
		Items: map[string]domain.ReceiptItem{
			"shoes-A1": {Category: "shoes", ItemID: "A1", Title: "Runner", Price: decimal.NewFromInt(500), Quantity: 2},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	repo := &MockOrderRepository{}
	ledger := NewOrderLedger(repo, zap.NewNop())

	customer := domain.Customer{Name: "Jane", Email: "jane@example.com"}
	order, err := ledger.CreateOrder(context.Background(), customer, testReceipt(), true)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "jane@example.com", order.Owner)
	assert.Equal(t, domain.OrderStatusInitiated, order.Status)
	assert.Empty(t, order.GatewayOrderID)
	assert.True(t, repo.ConsumedCart)

	stored, err := repo.GetOrder(context.Background(), order.Owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreateOrder_GuestSkipsIndex(t *testing.T) {
	repo := &MockOrderRepository{}
	ledger := NewOrderLedger(repo, zap.NewNop())

	order, err := ledger.CreateOrder(context.Background(),
		domain.Customer{Email: "guest@example.com"}, testReceipt(), false)
	require.NoError(t, err)

	assert.False(t, repo.ConsumedCart)
	history, err := ledger.ListByOwner(context.Background(), order.Owner)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateOrder_Validation(t *testing.T) {
	ledger := NewOrderLedger(&MockOrderRepository{}, zap.NewNop())

	t.Run("missing email", func(t *testing.T) {
		_, err := ledger.CreateOrder(context.Background(), domain.Customer{}, testReceipt(), false)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("empty receipt", func(t *testing.T) {
		_, err := ledger.CreateOrder(context.Background(),
			domain.Customer{Email: "jane@example.com"}, &domain.Receipt{}, false)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCreateOrder_StoreFailure(t *testing.T) {
	repo := &MockOrderRepository{CreateErr: errors.New("connection reset")}
	ledger := NewOrderLedger(repo, zap.NewNop())

	_, err := ledger.CreateOrder(context.Background(),
		domain.Customer{Email: "jane@example.com"}, testReceipt(), true)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestGetOrder_NotFound(t *testing.T) {
	ledger := NewOrderLedger(&MockOrderRepository{}, zap.NewNop())

	_, err := ledger.GetOrder(context.Background(),
		domain.OrderRef{Owner: "jane@example.com", OrderID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByStatus_RejectsUnknownStatus(t *testing.T) {
	ledger := NewOrderLedger(&MockOrderRepository{}, zap.NewNop())

	_, err := ledger.ListByStatus(context.Background(), domain.OrderStatus("sideways"), 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListByOwner_NewestFirst(t *testing.T) {
	repo := &MockOrderRepository{}
	ledger := NewOrderLedger(repo, zap.NewNop())

	first, err := ledger.CreateOrder(context.Background(),
		domain.Customer{Email: "jane@example.com"}, testReceipt(), true)
	require.NoError(t, err)
	second, err := ledger.CreateOrder(context.Background(),
		domain.Customer{Email: "jane@example.com"}, testReceipt(), true)
	require.NoError(t, err)

	history, err := ledger.ListByOwner(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}
