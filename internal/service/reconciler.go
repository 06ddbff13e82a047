package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// Reconciler finishes cancellations whose refund succeeded at the gateway
// but whose status write did not commit. It only ever re-applies the
// idempotent cancel keyed by the stored refund id; it never talks to the
// gateway and so can never refund twice.
type Reconciler struct {
	orders repository.OrderRepository
	tick   time.Duration
	log    *zap.Logger
}

func NewReconciler(orders repository.OrderRepository, log *zap.Logger) *Reconciler {
	return &Reconciler{
		orders: orders,
		tick:   30 * time.Second,
		log:    log,
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				r.log.Error("refund reconciliation pass failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// ReconcileOnce processes pending refund markers and returns how many it
// resolved. Safe to call concurrently with live traffic and with itself.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	markers, err := r.orders.ListRefundMarkers(ctx, 100)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, marker := range markers {
		applied, err := r.orders.MarkCancelled(ctx, marker.Owner, marker.OrderID, marker.RefundID)
		if err != nil {
			r.log.Warn("refund reconciliation retry failed",
				zap.String("refund_id", marker.RefundID),
				zap.String("order_id", marker.OrderID),
				zap.Error(err))
			continue
		}
		if !applied {
			// The order moved somewhere the cancel filter no longer
			// matches; this needs a human, keep the marker.
			r.log.Error("refund marker does not match order state",
				zap.String("refund_id", marker.RefundID),
				zap.String("order_id", marker.OrderID),
				zap.String("owner", marker.Owner))
			continue
		}

		if err := r.orders.DeleteRefundMarker(ctx, marker.RefundID); err != nil {
			r.log.Warn("failed to delete resolved refund marker",
				zap.String("refund_id", marker.RefundID),
				zap.Error(err))
			continue
		}

		r.log.Info("reconciled refunded order",
			zap.String("refund_id", marker.RefundID),
			zap.String("order_id", marker.OrderID))
		resolved++
	}

	return resolved, nil
}
