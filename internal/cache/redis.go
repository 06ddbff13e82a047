package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/debarkamondal/dezmerce-backend/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, ref domain.ItemRef) (*domain.CatalogEntry, error) {
	key := cacheKey(ref)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry domain.CatalogEntry
	if err2 := json.Unmarshal(data, &entry); err2 != nil {
		return nil, fmt.Errorf("unmarshal catalog entry failed: %w", err2)
	}

	return &entry, nil
}

func (r RedisCache) Set(ctx context.Context, entry *domain.CatalogEntry) error {
	key := cacheKey(domain.ItemRef{Category: entry.Category, ItemID: entry.ItemID})
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal catalog entry failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, ref domain.ItemRef) error {
	if err := r.client.Del(ctx, cacheKey(ref)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(ref domain.ItemRef) string {
	return fmt.Sprintf("catalog:%s:%s", ref.Category, ref.ItemID)
}
