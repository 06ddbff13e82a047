package domain

import "time"

type Cart struct {
	Owner     string     `json:"-"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem references a catalog entry by (category, item id). Any price
// or title a client attaches alongside these fields is display-only and
// ignored when the cart is priced.
type CartItem struct {
	Category string `json:"category"`
	ItemID   string `json:"id"`
	Quantity int    `json:"qty"`
}

// ItemRef addresses one catalog entry for batch lookup.
type ItemRef struct {
	Category string
	ItemID   string
}

func (i CartItem) Ref() ItemRef {
	return ItemRef{Category: i.Category, ItemID: i.ItemID}
}

func (r ItemRef) Key() string {
	return ItemKey(r.Category, r.ItemID)
}
