package service

import (
	"context"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
)

// PaymentGateway is the boundary to the external payment processor.
// Consumers define this interface, not the HTTP implementation.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
	Refund(ctx context.Context, paymentID string, amount int64) (*gateway.Refund, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// AuditPublisher receives settlement transitions for the audit trail.
type AuditPublisher interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

// CatalogLookup is the read side of the price oracle as the snapshot
// resolver sees it.
type CatalogLookup interface {
	Lookup(ctx context.Context, refs []domain.ItemRef) (map[string]domain.CatalogEntry, error)
}
