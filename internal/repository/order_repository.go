package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

// CreateOrder inserts the order record. For authenticated owners it also
// appends the order id to the owner's index and deletes the owner's cart,
// all inside one store transaction: either all three commit or none do.
func (r *recordRepository) CreateOrder(ctx context.Context, order *domain.Order, consumeCart bool) error {
	doc := orderToDoc(order)

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.records.InsertOne(sc, doc); err != nil {
			return nil, err
		}

		if !consumeCart {
			return nil, nil
		}

		_, err := r.records.UpdateOne(sc,
			bson.M{"pk": pkUser, "sk": order.Owner},
			bson.M{"$push": bson.M{"orders": order.ID}},
			options.Update().SetUpsert(true))
		if err != nil {
			return nil, err
		}

		// The cart may already be gone; the transaction only requires
		// that it is gone once the order exists.
		if _, err := r.records.DeleteOne(sc, bson.M{"pk": pkCart, "sk": order.Owner}); err != nil {
			return nil, err
		}

		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("order transaction failed: %w", err)
	}

	return nil
}

func (r *recordRepository) GetOrder(ctx context.Context, owner, orderID string) (*domain.Order, error) {
	var doc orderDoc

	filter := bson.M{"pk": pkOrder, "sk": orderSK(owner, orderID)}
	err := r.records.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return orderFromDoc(doc)
}

// ListByOwner resolves the owner's order index newest-first.
func (r *recordRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error) {
	var user userDoc
	err := r.records.FindOne(ctx, bson.M{"pk": pkUser, "sk": owner}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order index: %w", err)
	}
	if len(user.Orders) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(user.Orders))
	for _, id := range user.Orders {
		keys = append(keys, orderSK(owner, id))
	}

	return r.findOrders(ctx, bson.M{"pk": pkOrder, "sk": bson.M{"$in": keys}}, 0)
}

// ListByStatus scans the shared order partition's status index,
// newest-first. Order ids are time-sortable, so descending order_id is
// descending creation time.
func (r *recordRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error) {
	return r.findOrders(ctx, bson.M{"pk": pkOrder, "status": string(status)}, limit)
}

func (r *recordRepository) findOrders(ctx context.Context, filter bson.M, limit int) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		order, err := orderFromDoc(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("order cursor failed: %w", err)
	}

	return orders, nil
}

// SetGatewayOrderID binds the gateway order id, only if none is bound yet.
// The conditional filter closes the race between two session requests
// observing "unset" at the same time.
func (r *recordRepository) SetGatewayOrderID(ctx context.Context, owner, orderID, gatewayOrderID string) (bool, error) {
	filter := bson.M{
		"pk":          pkOrder,
		"sk":          orderSK(owner, orderID),
		"gw_order_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"gw_order_id": gatewayOrderID,
		"updated_at":  time.Now(),
	}}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set gateway order id: %w", err)
	}

	return result.MatchedCount == 1, nil
}

// MarkPaid applies initiated -> paid, conditioned on the order still being
// initiated with no payment recorded. A replayed callback does not match
// and writes nothing.
func (r *recordRepository) MarkPaid(ctx context.Context, owner, orderID, paymentID string) (bool, error) {
	filter := bson.M{
		"pk":            pkOrder,
		"sk":            orderSK(owner, orderID),
		"status":        string(domain.OrderStatusInitiated),
		"gw_payment_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"status":        string(domain.OrderStatusPaid),
		"gw_payment_id": paymentID,
		"updated_at":    time.Now(),
	}}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return result.MatchedCount == 1, nil
}

// MarkCancelled applies the cancel, either from paid with no refund
// recorded yet, or as an idempotent retry keyed by the same refund id.
func (r *recordRepository) MarkCancelled(ctx context.Context, owner, orderID, refundID string) (bool, error) {
	filter := bson.M{
		"pk": pkOrder,
		"sk": orderSK(owner, orderID),
		"$or": []bson.M{
			{"status": string(domain.OrderStatusPaid), "refund_id": bson.M{"$exists": false}},
			{"refund_id": refundID},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":     string(domain.OrderStatusCancelled),
		"refund_id":  refundID,
		"updated_at": time.Now(),
	}}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order cancelled: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *recordRepository) SetTracking(ctx context.Context, owner, orderID, trackingID string) (bool, error) {
	filter := bson.M{
		"pk":     pkOrder,
		"sk":     orderSK(owner, orderID),
		"status": string(domain.OrderStatusPaid),
	}
	update := bson.M{"$set": bson.M{
		"status":      string(domain.OrderStatusShipped),
		"tracking_id": trackingID,
		"updated_at":  time.Now(),
	}}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set tracking: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *recordRepository) MarkDelivered(ctx context.Context, owner, orderID string) (bool, error) {
	filter := bson.M{
		"pk":     pkOrder,
		"sk":     orderSK(owner, orderID),
		"status": string(domain.OrderStatusShipped),
	}
	update := bson.M{"$set": bson.M{
		"status":     string(domain.OrderStatusDelivered),
		"updated_at": time.Now(),
	}}

	result, err := r.records.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *recordRepository) PutRefundMarker(ctx context.Context, marker *RefundMarker) error {
	doc := refundMarkerDoc{
		PK:        pkRefund,
		SK:        marker.RefundID,
		Owner:     marker.Owner,
		OrderID:   marker.OrderID,
		CreatedAt: marker.CreatedAt,
	}

	_, err := r.records.ReplaceOne(ctx,
		bson.M{"pk": pkRefund, "sk": marker.RefundID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put refund marker: %w", err)
	}

	return nil
}

func (r *recordRepository) ListRefundMarkers(ctx context.Context, limit int) ([]*RefundMarker, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.records.Find(ctx, bson.M{"pk": pkRefund}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list refund markers: %w", err)
	}
	defer cursor.Close(ctx)

	var markers []*RefundMarker
	for cursor.Next(ctx) {
		var doc refundMarkerDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode refund marker: %w", err)
		}
		markers = append(markers, &RefundMarker{
			RefundID:  doc.SK,
			Owner:     doc.Owner,
			OrderID:   doc.OrderID,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("refund marker cursor failed: %w", err)
	}

	return markers, nil
}

func (r *recordRepository) DeleteRefundMarker(ctx context.Context, refundID string) error {
	if _, err := r.records.DeleteOne(ctx, bson.M{"pk": pkRefund, "sk": refundID}); err != nil {
		return fmt.Errorf("failed to delete refund marker: %w", err)
	}
	return nil
}
