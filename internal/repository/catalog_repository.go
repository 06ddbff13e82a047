package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

// BatchGet fetches catalog entries for the given refs. Unknown refs are
// simply absent from the result; callers decide whether that is an error.
func (r *recordRepository) BatchGet(ctx context.Context, refs []domain.ItemRef) ([]domain.CatalogEntry, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	keys := make([]bson.M, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, bson.M{"pk": productPK(ref.Category), "sk": ref.ItemID})
	}

	cursor, err := r.records.Find(ctx, bson.M{"$or": keys})
	if err != nil {
		return nil, fmt.Errorf("failed to batch get catalog entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []domain.CatalogEntry
	for cursor.Next(ctx) {
		var doc catalogDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode catalog entry: %w", err)
		}
		price, err := decimal.NewFromString(doc.Price)
		if err != nil {
			return nil, fmt.Errorf("corrupt catalog price %q for %s/%s: %w", doc.Price, doc.PK, doc.SK, err)
		}
		entries = append(entries, domain.CatalogEntry{
			Category:  doc.PK[len("products:"):],
			ItemID:    doc.SK,
			Title:     doc.Title,
			Price:     price,
			Thumbnail: doc.Thumbnail,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("catalog cursor failed: %w", err)
	}

	return entries, nil
}

// PutCatalogEntry writes one catalog record. Catalog management owns these
// writes; the method exists for seeding and tests.
func (r *recordRepository) PutCatalogEntry(ctx context.Context, entry domain.CatalogEntry) error {
	doc := catalogDoc{
		PK:        productPK(entry.Category),
		SK:        entry.ItemID,
		Title:     entry.Title,
		Price:     entry.Price.String(),
		Thumbnail: entry.Thumbnail,
	}
	_, err := r.records.ReplaceOne(ctx,
		bson.M{"pk": doc.PK, "sk": doc.SK},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to put catalog entry: %w", err)
	}
	return nil
}
