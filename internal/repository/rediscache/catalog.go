package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ovenworks/storefront/internal/domain"
	apperrors "github.com/ovenworks/storefront/pkg/errors"
)

const keyPrefix = "product:"

// CatalogCache is a read-through cache for individual products backed by
// Redis. Entries are invalidated on product and review mutations; a miss is
// reported as a not-found error so callers fall back to the database.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new Redis-backed product cache.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached product by ID.
func (c *CatalogCache) Get(ctx context.Context, productID string) (*domain.Product, error) {
	key := keyPrefix + productID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}

	return &p, nil
}

// Set stores a product with the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, p *domain.Product) error {
	key := keyPrefix + p.ID

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}

// Invalidate removes a product from the cache.
func (c *CatalogCache) Invalidate(ctx context.Context, productID string) error {
	key := keyPrefix + productID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}

	return nil
}
