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

func (r *recordRepository) GetCart(ctx context.Context, owner string) (*domain.Cart, error) {
	var doc cartDoc

	filter := bson.M{"pk": pkCart, "sk": owner}
	err := r.records.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.CartItem{
			Category: item.Category,
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
		})
	}

	return &domain.Cart{Owner: owner, Items: items, UpdatedAt: doc.UpdatedAt}, nil
}

// PutCart replaces the stored cart wholesale; the client always submits
// the full item list.
func (r *recordRepository) PutCart(ctx context.Context, cart *domain.Cart) error {
	items := make([]cartItemDoc, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemDoc{
			Category: item.Category,
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
		})
	}
	doc := cartDoc{
		PK:        pkCart,
		SK:        cart.Owner,
		Items:     items,
		UpdatedAt: time.Now(),
	}

	_, err := r.records.ReplaceOne(ctx,
		bson.M{"pk": pkCart, "sk": cart.Owner},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put cart: %w", err)
	}

	return nil
}

func (r *recordRepository) DeleteCart(ctx context.Context, owner string) error {
	result, err := r.records.DeleteOne(ctx, bson.M{"pk": pkCart, "sk": owner})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}
