package domain

import "github.com/shopspring/decimal"

// ReceiptItem is one priced line of a receipt. Price and title come from
// the catalog at resolution time, never from the client.
type ReceiptItem struct {
	Category string          `json:"category"`
	ItemID   string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"qty"`
}

// Receipt is the priced snapshot of a cart at order-creation time,
// keyed by category-itemID. It is embedded in the order and immutable
// once the order exists.
type Receipt struct {
	Total decimal.Decimal        `json:"total"`
	Items map[string]ReceiptItem `json:"items"`
}

// ItemKey builds the composite receipt key for a catalog item.
func ItemKey(category, itemID string) string {
	return category + "-" + itemID
}

func (r Receipt) Subtotal(category, itemID string) decimal.Decimal {
	item, ok := r.Items[ItemKey(category, itemID)]
	if !ok {
		return decimal.Zero
	}
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// AmountMinorUnits is the receipt total expressed in the gateway's minor
// currency unit (paise for INR).
func (r Receipt) AmountMinorUnits() int64 {
	return r.Total.Mul(decimal.NewFromInt(100)).IntPart()
}
