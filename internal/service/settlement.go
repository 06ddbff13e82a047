package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/gateway"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// Callback is the payload the gateway posts back after a checkout attempt.
type Callback struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Settlement drives the order state machine from gateway callbacks and
// admin actions. Every irreversible transition goes through a conditional
// store write and lands on the audit trail.
type Settlement struct {
	orders repository.OrderRepository
	gw     PaymentGateway
	audit  AuditPublisher
	log    *zap.Logger
}

func NewSettlement(orders repository.OrderRepository, gw PaymentGateway, audit AuditPublisher, log *zap.Logger) *Settlement {
	return &Settlement{
		orders: orders,
		gw:     gw,
		audit:  audit,
		log:    log,
	}
}

// ConfirmPayment verifies a gateway callback and applies
// initiated -> paid. The target order comes from the gateway's own
// payment record, never from client-supplied identifiers. A replayed
// callback for an already-paid order is a no-op.
func (s *Settlement) ConfirmPayment(ctx context.Context, cb Callback) (*domain.Order, error) {
	if cb.GatewayOrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return nil, fmt.Errorf("%w: missing order id, payment id or signature", domain.ErrMalformedCallback)
	}

	if !s.gw.VerifySignature(cb.GatewayOrderID, cb.PaymentID, cb.Signature) {
		s.log.Warn("payment callback signature mismatch",
			zap.String("gateway_order_id", cb.GatewayOrderID),
			zap.String("payment_id", cb.PaymentID))
		return nil, domain.ErrSignature
	}

	payment, err := s.gw.FetchPayment(ctx, cb.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment: %v", domain.ErrGateway, err)
	}
	if payment.Status != gateway.PaymentStatusCaptured {
		return nil, fmt.Errorf("%w: payment in status %q", domain.ErrPaymentNotCaptured, payment.Status)
	}
	if payment.OrderID != cb.GatewayOrderID {
		return nil, fmt.Errorf("%w: payment belongs to a different gateway order", domain.ErrMalformedCallback)
	}

	orderID, ok := parseReceiptRef(payment.Description)
	if !ok || payment.Email == "" {
		return nil, fmt.Errorf("%w: payment record carries no order reference", domain.ErrMalformedCallback)
	}
	ref := domain.OrderRef{Owner: payment.Email, OrderID: orderID}

	applied, err := s.orders.MarkPaid(ctx, ref.Owner, ref.OrderID, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: mark paid: %v", domain.ErrPersistence, err)
	}

	order, getErr := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrOrderNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reread order: %v", domain.ErrPersistence, getErr)
	}

	if !applied {
		// The payment id doubles as the idempotency key: the same
		// callback delivered twice settles the order exactly once.
		if order.Status == domain.OrderStatusPaid && order.GatewayPaymentID == payment.ID {
			s.log.Info("duplicate payment callback ignored",
				zap.String("order_id", order.ID),
				zap.String("payment_id", payment.ID))
			return order, nil
		}
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidState, order.Status)
	}

	s.log.Info("order paid",
		zap.String("order_id", order.ID),
		zap.String("owner", order.Owner),
		zap.String("payment_id", payment.ID))
	s.publishAudit(domain.AuditEvent{
		OrderID:   order.ID,
		Owner:     order.Owner,
		From:      domain.OrderStatusInitiated,
		To:        domain.OrderStatusPaid,
		PaymentID: payment.ID,
		At:        time.Now().UTC(),
	})

	return order, nil
}

// CancelOrder refunds a paid order and marks it cancelled. If the status
// write fails after the gateway accepted the refund, a refund marker is
// left behind for the reconciler; the refund itself is never reissued.
func (s *Settlement) CancelOrder(ctx context.Context, ref domain.OrderRef) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get order: %v", domain.ErrPersistence, err)
	}
	if order.Status != domain.OrderStatusPaid {
		return nil, fmt.Errorf("%w: cancel requires a paid order, got %s", domain.ErrInvalidState, order.Status)
	}

	refund, err := s.gw.Refund(ctx, order.GatewayPaymentID, order.Receipt.AmountMinorUnits())
	if err != nil {
		return nil, fmt.Errorf("%w: refund: %v", domain.ErrGateway, err)
	}
	if refund.Status != gateway.RefundStatusProcessed && refund.Status != gateway.RefundStatusPending {
		return nil, fmt.Errorf("%w: refund in status %q", domain.ErrRefund, refund.Status)
	}

	applied, markErr := s.orders.MarkCancelled(ctx, ref.Owner, ref.OrderID, refund.ID)
	if markErr != nil || !applied {
		// Money has left the gateway; the order record just doesn't say
		// so yet. Record the refund so the reconciler can finish the job.
		s.log.Error("refund accepted but cancel status write failed",
			zap.String("order_id", order.ID),
			zap.String("refund_id", refund.ID),
			zap.Bool("matched", applied),
			zap.Error(markErr))
		if err := s.orders.PutRefundMarker(ctx, &repository.RefundMarker{
			RefundID:  refund.ID,
			Owner:     ref.Owner,
			OrderID:   ref.OrderID,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			s.log.Error("failed to record refund marker",
				zap.String("refund_id", refund.ID),
				zap.Error(err))
		}
		return nil, fmt.Errorf("%w: record cancellation for refund %s", domain.ErrPersistence, refund.ID)
	}

	s.log.Info("order cancelled",
		zap.String("order_id", order.ID),
		zap.String("owner", order.Owner),
		zap.String("refund_id", refund.ID))
	s.publishAudit(domain.AuditEvent{
		OrderID:  order.ID,
		Owner:    order.Owner,
		From:     domain.OrderStatusPaid,
		To:       domain.OrderStatusCancelled,
		RefundID: refund.ID,
		At:       time.Now().UTC(),
	})

	order.Status = domain.OrderStatusCancelled
	order.RefundID = refund.ID
	return order, nil
}

// Ship records a tracking id and moves a paid order to shipped.
func (s *Settlement) Ship(ctx context.Context, ref domain.OrderRef, trackingID string) (*domain.Order, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking id is required", domain.ErrValidation)
	}

	applied, err := s.orders.SetTracking(ctx, ref.Owner, ref.OrderID, trackingID)
	if err != nil {
		return nil, fmt.Errorf("%w: set tracking: %v", domain.ErrPersistence, err)
	}
	if !applied {
		return nil, s.transitionConflict(ctx, ref, domain.OrderStatusShipped)
	}

	order, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: reread order: %v", domain.ErrPersistence, err)
	}

	s.log.Info("order shipped",
		zap.String("order_id", order.ID),
		zap.String("tracking_id", trackingID))
	s.publishAudit(domain.AuditEvent{
		OrderID:    order.ID,
		Owner:      order.Owner,
		From:       domain.OrderStatusPaid,
		To:         domain.OrderStatusShipped,
		TrackingID: trackingID,
		At:         time.Now().UTC(),
	})

	return order, nil
}

// MarkDelivered is the status-only shipped -> delivered update.
func (s *Settlement) MarkDelivered(ctx context.Context, ref domain.OrderRef) (*domain.Order, error) {
	applied, err := s.orders.MarkDelivered(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: mark delivered: %v", domain.ErrPersistence, err)
	}
	if !applied {
		return nil, s.transitionConflict(ctx, ref, domain.OrderStatusDelivered)
	}

	order, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: reread order: %v", domain.ErrPersistence, err)
	}
	return order, nil
}

func (s *Settlement) transitionConflict(ctx context.Context, ref domain.OrderRef, to domain.OrderStatus) error {
	order, err := s.orders.GetOrder(ctx, ref.Owner, ref.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: reread order: %v", domain.ErrPersistence, err)
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidState, order.Status, to)
}

func (s *Settlement) publishAudit(event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.Warn("audit publish failed",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func parseReceiptRef(ref string) (string, bool) {
	id, ok := strings.CutPrefix(ref, "order:")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
