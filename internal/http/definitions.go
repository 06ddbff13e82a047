package http

import (
	"context"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/service"
)

// Handler-side views of the service layer. Consumers define these
// interfaces; handler tests swap in mocks.

type SnapshotResolver interface {
	Resolve(ctx context.Context, owner string, clientItems []domain.CartItem) (*domain.Receipt, error)
}

type OrderLedger interface {
	CreateOrder(ctx context.Context, customer domain.Customer, receipt *domain.Receipt, authenticated bool) (*domain.Order, error)
	GetOrder(ctx context.Context, ref domain.OrderRef) (*domain.Order, error)
	ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error)
}

type SessionIssuer interface {
	GetOrCreateSession(ctx context.Context, ref domain.OrderRef) (*service.Session, error)
}

type Settler interface {
	ConfirmPayment(ctx context.Context, cb service.Callback) (*domain.Order, error)
	CancelOrder(ctx context.Context, ref domain.OrderRef) (*domain.Order, error)
	Ship(ctx context.Context, ref domain.OrderRef, trackingID string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, ref domain.OrderRef) (*domain.Order, error)
}

// OrderTokens issues and verifies the per-order capability token handed
// out at checkout.
type OrderTokens interface {
	IssueOrderToken(ref domain.OrderRef) (string, error)
	VerifyOrderToken(tokenString string) (*domain.OrderRef, error)
}
