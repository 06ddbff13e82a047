package cache

import (
	"context"
	"errors"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

type CatalogCache interface {
	Get(ctx context.Context, ref domain.ItemRef) (*domain.CatalogEntry, error)
	Set(ctx context.Context, entry *domain.CatalogEntry) error
	Delete(ctx context.Context, ref domain.ItemRef) error
}

var ErrCacheMiss = errors.New("cache miss")
