package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/client/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CandidateCache keeps the frequently-bought list of a product for a short while,
// so toggling through product pages does not refetch it every time.
type CandidateCache interface {
	Get(ctx context.Context, productID string) ([]domain.BundleCandidate, bool, error)
	Set(ctx context.Context, productID string, candidates []domain.BundleCandidate) error
	Invalidate(ctx context.Context, productID string) error
}

type redisCandidateCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisCandidateCache(redisClient *redis.Client, ttl time.Duration) CandidateCache {
	return &redisCandidateCache{
		redisClient: redisClient,
		keyPrefix:   "storefront:bundle:candidates:",
		ttl:         ttl,
	}
}

func (c *redisCandidateCache) Get(ctx context.Context, productID string) ([]domain.BundleCandidate, bool, error) {
	val, err := c.redisClient.Get(ctx, c.keyPrefix+productID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached candidates for %s: %w", productID, err)
	}

	var candidates []domain.BundleCandidate
	if err := json.Unmarshal(val, &candidates); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached candidates for %s: %w", productID, err)
	}

	return candidates, true, nil
}

func (c *redisCandidateCache) Set(ctx context.Context, productID string, candidates []domain.BundleCandidate) error {
	if candidates == nil {
		candidates = []domain.BundleCandidate{}
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates for %s: %w", productID, err)
	}

	if err := c.redisClient.Set(ctx, c.keyPrefix+productID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache candidates for %s: %w", productID, err)
	}
	return nil
}

func (c *redisCandidateCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.redisClient.Del(ctx, c.keyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate candidates for %s: %w", productID, err)
	}
	return nil
}
