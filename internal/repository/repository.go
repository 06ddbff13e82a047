package repository

import (
	"context"
	"errors"
	"time"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this id already exists")
)

// CatalogRepository is the read-only price oracle over the catalog
// partition. Consumers define this interface, not the MongoDB implementation.
type CatalogRepository interface {
	BatchGet(ctx context.Context, refs []domain.ItemRef) ([]domain.CatalogEntry, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, owner string) (*domain.Cart, error)
	PutCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, owner string) error
}

// RefundMarker records a refund that succeeded at the gateway before the
// order's cancelled status committed. The reconciler re-applies the cancel
// keyed by refund id until the marker can be deleted.
type RefundMarker struct {
	RefundID  string
	Owner     string
	OrderID   string
	CreatedAt time.Time
}

// OrderRepository owns the order partition, the per-user order index and
// the refund markers. The conditional mutators return whether the
// precondition matched; false means the record was already past that
// state and nothing was written.
type OrderRepository interface {
	// CreateOrder inserts the order and, when consumeCart is set, appends
	// the order id to the owner's index and deletes the owner's cart in
	// the same store transaction.
	CreateOrder(ctx context.Context, order *domain.Order, consumeCart bool) error
	GetOrder(ctx context.Context, owner, orderID string) (*domain.Order, error)
	ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error)

	SetGatewayOrderID(ctx context.Context, owner, orderID, gatewayOrderID string) (bool, error)
	MarkPaid(ctx context.Context, owner, orderID, paymentID string) (bool, error)
	MarkCancelled(ctx context.Context, owner, orderID, refundID string) (bool, error)
	SetTracking(ctx context.Context, owner, orderID, trackingID string) (bool, error)
	MarkDelivered(ctx context.Context, owner, orderID string) (bool, error)

	PutRefundMarker(ctx context.Context, marker *RefundMarker) error
	ListRefundMarkers(ctx context.Context, limit int) ([]*RefundMarker, error)
	DeleteRefundMarker(ctx context.Context, refundID string) error
}
