package domain

import "time"

// AuditEvent records an irreversible settlement transition for the audit
// trail. Published fire-and-forget; losing one never blocks the transition.
type AuditEvent struct {
	OrderID    string      `json:"order_id"`
	Owner      string      `json:"owner"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	PaymentID  string      `json:"payment_id,omitempty"`
	RefundID   string      `json:"refund_id,omitempty"`
	TrackingID string      `json:"tracking_id,omitempty"`
	At         time.Time   `json:"at"`
}
