package domain

import "github.com/shopspring/decimal"

// CatalogEntry is the trusted server-side product record. This core only
// reads it; catalog management writes it.
type CatalogEntry struct {
	Category  string          `json:"category"`
	ItemID    string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail,omitempty"`
}

func (e CatalogEntry) Key() string {
	return ItemKey(e.Category, e.ItemID)
}
