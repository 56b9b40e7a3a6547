package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// catalogKeyPrefix namespaces upstream catalog responses.
const catalogKeyPrefix = "catalog:resp:"

// CatalogStore keeps upstream catalog responses in Redis so that every
// instance shares one warm cache. It implements catalog.Store.
type CatalogStore struct {
	cache *Cache
}

// NewCatalogStore creates a CatalogStore on c.
func NewCatalogStore(c *Cache) *CatalogStore {
	return &CatalogStore{cache: c}
}

// Get returns the cached body for key. A missing key is not an error.
func (s *CatalogStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := s.cache.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return body, true, nil
}

// Set stores body for ttl with a single SET EX, so readers never see a
// partial entry. A non-positive ttl is ignored.
func (s *CatalogStore) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.client.Set(ctx, catalogKeyPrefix+key, body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
