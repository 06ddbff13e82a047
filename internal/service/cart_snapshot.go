package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

const maxItemQuantity = 99

// SnapshotResolver turns a cart into a trusted receipt. Authenticated
// owners are priced from their stored cart; guests submit their item list
// with the request. Prices and titles always come from the catalog, never
// from the client.
type SnapshotResolver struct {
	carts   repository.CartRepository
	catalog CatalogLookup
}

func NewSnapshotResolver(carts repository.CartRepository, catalog CatalogLookup) *SnapshotResolver {
	return &SnapshotResolver{
		carts:   carts,
		catalog: catalog,
	}
}

// Resolve builds the receipt for either the stored cart (owner set) or
// the client-submitted items (guest checkout). Read-only: the cart is
// consumed later, inside the order-creation transaction.
func (r *SnapshotResolver) Resolve(ctx context.Context, owner string, clientItems []domain.CartItem) (*domain.Receipt, error) {
	var items []domain.CartItem

	if owner != "" {
		cart, err := r.carts.GetCart(ctx, owner)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return nil, domain.ErrEmptyCart
			}
			return nil, fmt.Errorf("%w: load cart: %v", domain.ErrPersistence, err)
		}
		if len(cart.Items) == 0 {
			return nil, domain.ErrEmptyCart
		}
		items = cart.Items
	} else {
		if err := validateItems(clientItems); err != nil {
			return nil, err
		}
		items = clientItems
	}

	refs := make([]domain.ItemRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, item.Ref())
	}

	entries, err := r.catalog.Lookup(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("%w: price lookup: %v", domain.ErrPersistence, err)
	}

	receipt := &domain.Receipt{
		Total: decimal.Zero,
		Items: make(map[string]domain.ReceiptItem, len(items)),
	}
	for _, item := range items {
		key := item.Ref().Key()
		entry, ok := entries[key]
		if !ok {
			// Never silently drop an item or trust a client price for it.
			return nil, fmt.Errorf("%w: %s", domain.ErrStaleItem, key)
		}

		qty := item.Quantity
		if existing, ok := receipt.Items[key]; ok {
			qty += existing.Quantity
		}
		receipt.Items[key] = domain.ReceiptItem{
			Category: entry.Category,
			ItemID:   entry.ItemID,
			Title:    entry.Title,
			Price:    entry.Price,
			Quantity: qty,
		}
	}
	for _, item := range receipt.Items {
		receipt.Total = receipt.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return receipt, nil
}

func validateItems(items []domain.CartItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items submitted", domain.ErrValidation)
	}
	for _, item := range items {
		if item.Category == "" || item.ItemID == "" {
			return fmt.Errorf("%w: item category and id are required", domain.ErrValidation)
		}
		if item.Quantity <= 0 || item.Quantity > maxItemQuantity {
			return fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrValidation, maxItemQuantity)
		}
	}
	return nil
}
