package domain

import "time"

type OrderStatus string

const (
	OrderStatusInitiated OrderStatus = "initiated"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusInitiated: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// CanTransitionTo reports whether the order state machine allows moving
// from one status to another. Paid is never skipped on the way to
// shipped or delivered.
func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Customer is the contact and shipping info captured at checkout.
type Customer struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Order is the durable order record. Owner plus ID form the storage key;
// the gateway ids are set at most once over the order's lifetime.
type Order struct {
	ID               string      `json:"id"`
	Owner            string      `json:"-"`
	Customer         Customer    `json:"customer"`
	Receipt          Receipt     `json:"receipt"`
	Status           OrderStatus `json:"status"`
	GatewayOrderID   string      `json:"-"`
	GatewayPaymentID string      `json:"-"`
	TrackingID       string      `json:"tracking_id,omitempty"`
	RefundID         string      `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderRef identifies one order on behalf of its owner. It is the payload
// of the capability token issued at order creation.
type OrderRef struct {
	Owner   string
	OrderID string
}
