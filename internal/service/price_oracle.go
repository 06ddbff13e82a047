package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/debarkamondal/dezmerce-backend/domain"
	"github.com/debarkamondal/dezmerce-backend/internal/cache"
	"github.com/debarkamondal/dezmerce-backend/internal/repository"
)

// PriceOracle answers batch price/title lookups from the catalog, with a
// read-through cache in front of the store. It is the only trusted price
// source in the checkout path.
type PriceOracle struct {
	repo  repository.CatalogRepository
	cache cache.CatalogCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *zap.Logger
}

func NewPriceOracle(repo repository.CatalogRepository, cache cache.CatalogCache, log *zap.Logger) *PriceOracle {
	return &PriceOracle{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Lookup resolves the given refs to catalog entries, keyed by
// domain.ItemKey. Refs missing from the catalog are absent from the
// result; the caller decides whether that is fatal.
func (o *PriceOracle) Lookup(ctx context.Context, refs []domain.ItemRef) (map[string]domain.CatalogEntry, error) {
	refs = dedupeRefs(refs)
	entries := make(map[string]domain.CatalogEntry, len(refs))

	var misses []domain.ItemRef
	for _, ref := range refs {
		entry, err := o.cache.Get(ctx, ref)
		if err == nil {
			entries[ref.Key()] = *entry
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.log.Warn("catalog cache get failed", zap.String("key", ref.Key()), zap.Error(err))
		}
		misses = append(misses, ref)
	}

	if len(misses) == 0 {
		return entries, nil
	}

	fetched, err := o.fetchShared(ctx, misses)
	if err != nil {
		return nil, err
	}

	for key, entry := range fetched {
		entries[key] = entry
	}

	return entries, nil
}

// fetchShared collapses concurrent lookups for the same miss set into one
// store query and backfills the cache off the request path.
func (o *PriceOracle) fetchShared(ctx context.Context, misses []domain.ItemRef) (map[string]domain.CatalogEntry, error) {
	v, err, _ := o.sfg.Do(flightKey(misses), func() (interface{}, error) {
		fetched, err := o.repo.BatchGet(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("catalog batch get failed: %w", err)
		}

		result := make(map[string]domain.CatalogEntry, len(fetched))
		for _, entry := range fetched {
			result[entry.Key()] = entry

			entry := entry
			go func() {
				if err := o.cache.Set(context.Background(), &entry); err != nil {
					o.log.Warn("catalog cache set failed", zap.String("key", entry.Key()), zap.Error(err))
				}
			}()
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string]domain.CatalogEntry), nil
}

func dedupeRefs(refs []domain.ItemRef) []domain.ItemRef {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0:0]
	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok {
			continue
		}
		seen[ref.Key()] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func flightKey(refs []domain.ItemRef) string {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
