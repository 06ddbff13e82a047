package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

// All records live in one collection keyed by (pk, sk), mirroring a
// single-table layout: catalog entries under "products:<category>",
// carts under "cart", orders under the shared "order" partition with
// sk "<owner>:<order id>", the per-user order index under "user" and
// refund markers under "refund".
const (
	pkOrder  = "order"
	pkCart   = "cart"
	pkUser   = "user"
	pkRefund = "refund"
)

func productPK(category string) string {
	return "products:" + category
}

func orderSK(owner, orderID string) string {
	return owner + ":" + orderID
}

type recordRepository struct {
	db      *mongo.Database
	records *mongo.Collection
}

// NewRecordRepository builds the store over the shared records collection.
// The returned value implements CatalogRepository, CartRepository and
// OrderRepository.
func NewRecordRepository(db *mongo.Database) *recordRepository {
	return &recordRepository{
		db:      db,
		records: db.Collection("records"),
	}
}

func (r *recordRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// status scan for admin listing, newest first via order_id
			Keys:    bson.D{{Key: "pk", Value: 1}, {Key: "status", Value: 1}, {Key: "order_id", Value: -1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := r.records.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Document shapes. Money is persisted as decimal strings so nothing is
// lost to float rounding on the way through the store.

type catalogDoc struct {
	PK        string `bson:"pk"`
	SK        string `bson:"sk"`
	Title     string `bson:"title"`
	Price     string `bson:"price"`
	Thumbnail string `bson:"thumbnail,omitempty"`
}

type cartItemDoc struct {
	Category string `bson:"category"`
	ItemID   string `bson:"item_id"`
	Quantity int    `bson:"quantity"`
}

type cartDoc struct {
	PK        string        `bson:"pk"`
	SK        string        `bson:"sk"`
	Items     []cartItemDoc `bson:"items"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type receiptItemDoc struct {
	Category string `bson:"category"`
	ItemID   string `bson:"item_id"`
	Title    string `bson:"title"`
	Price    string `bson:"price"`
	Quantity int    `bson:"quantity"`
}

type orderDoc struct {
	PK               string                    `bson:"pk"`
	SK               string                    `bson:"sk"`
	OrderID          string                    `bson:"order_id"`
	Owner            string                    `bson:"owner"`
	Customer         domain.Customer           `bson:"customer"`
	Status           string                    `bson:"status"`
	Total            string                    `bson:"total"`
	Items            map[string]receiptItemDoc `bson:"items"`
	GatewayOrderID   string                    `bson:"gw_order_id,omitempty"`
	GatewayPaymentID string                    `bson:"gw_payment_id,omitempty"`
	TrackingID       string                    `bson:"tracking_id,omitempty"`
	RefundID         string                    `bson:"refund_id,omitempty"`
	CreatedAt        time.Time                 `bson:"created_at"`
	UpdatedAt        time.Time                 `bson:"updated_at"`
}

type userDoc struct {
	PK     string   `bson:"pk"`
	SK     string   `bson:"sk"`
	Orders []string `bson:"orders"`
}

type refundMarkerDoc struct {
	PK        string    `bson:"pk"`
	SK        string    `bson:"sk"`
	Owner     string    `bson:"owner"`
	OrderID   string    `bson:"order_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func orderToDoc(o *domain.Order) orderDoc {
	items := make(map[string]receiptItemDoc, len(o.Receipt.Items))
	for key, item := range o.Receipt.Items {
		items[key] = receiptItemDoc{
			Category: item.Category,
			ItemID:   item.ItemID,
			Title:    item.Title,
			Price:    item.Price.String(),
			Quantity: item.Quantity,
		}
	}
	return orderDoc{
		PK:               pkOrder,
		SK:               orderSK(o.Owner, o.ID),
		OrderID:          o.ID,
		Owner:            o.Owner,
		Customer:         o.Customer,
		Status:           string(o.Status),
		Total:            o.Receipt.Total.String(),
		Items:            items,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		TrackingID:       o.TrackingID,
		RefundID:         o.RefundID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func orderFromDoc(doc orderDoc) (*domain.Order, error) {
	total, err := decimal.NewFromString(doc.Total)
	if err != nil {
		return nil, fmt.Errorf("corrupt order total %q: %w", doc.Total, err)
	}
	items := make(map[string]domain.ReceiptItem, len(doc.Items))
	for key, item := range doc.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("corrupt item price %q: %w", item.Price, err)
		}
		items[key] = domain.ReceiptItem{
			Category: item.Category,
			ItemID:   item.ItemID,
			Title:    item.Title,
			Price:    price,
			Quantity: item.Quantity,
		}
	}
	return &domain.Order{
		ID:               doc.OrderID,
		Owner:            doc.Owner,
		Customer:         doc.Customer,
		Receipt:          domain.Receipt{Total: total, Items: items},
		Status:           domain.OrderStatus(doc.Status),
		GatewayOrderID:   doc.GatewayOrderID,
		GatewayPaymentID: doc.GatewayPaymentID,
		TrackingID:       doc.TrackingID,
		RefundID:         doc.RefundID,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}
