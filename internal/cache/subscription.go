package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feral-file/ff-webhook-dispatcher/internal/adapter"
	"github.com/feral-file/ff-webhook-dispatcher/internal/config"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// SubscriptionCache caches single subscriptions by id
//
//go:generate mockgen -source=subscription.go -destination=../mocks/subscription_cache.go -package=mocks -mock_names=SubscriptionCache=MockSubscriptionCache
type SubscriptionCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, id uint64) (*schema.Subscription, error)
	// Set stores sub for the configured TTL
	Set(ctx context.Context, sub *schema.Subscription) error
	// Invalidate drops the entry for id
	Invalidate(ctx context.Context, id uint64) error
}

type redisSubscriptionCache struct {
	redis     adapter.RedisClient
	json      adapter.JSON
	ttl       time.Duration
	keyPrefix string
}

// NewSubscriptionCache creates a Redis backed subscription cache
func NewSubscriptionCache(cfg config.CacheConfig, rc adapter.RedisClient, jsonAdapter adapter.JSON) SubscriptionCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &redisSubscriptionCache{
		redis:     rc,
		json:      jsonAdapter,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
	}
}

func (c *redisSubscriptionCache) key(id uint64) string {
	return c.keyPrefix + strconv.FormatUint(id, 10)
}

func (c *redisSubscriptionCache) Get(ctx context.Context, id uint64) (*schema.Subscription, error) {
	data, err := c.redis.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached subscription: %w", err)
	}

	var sub schema.Subscription
	if err := c.json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode cached subscription: %w", err)
	}
	return &sub, nil
}

func (c *redisSubscriptionCache) Set(ctx context.Context, sub *schema.Subscription) error {
	data, err := c.json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(sub.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache subscription: %w", err)
	}
	return nil
}

func (c *redisSubscriptionCache) Invalidate(ctx context.Context, id uint64) error {
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached subscription: %w", err)
	}
	return nil
}
