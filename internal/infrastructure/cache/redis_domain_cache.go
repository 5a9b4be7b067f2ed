package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/config"
)

const (
	defaultDomainKeyPrefix = "tenant:domain:"
	// negativeMarker is stored for domains known not to belong to any merchant
	negativeMarker = "-"
)

// RedisDomainCache implements identity.CustomDomainCache using Redis.
// It is shared across instances, so an invalidation is seen by all of them.
type RedisDomainCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDomainCache creates a cache over an existing Redis client
func NewRedisDomainCache(client *redis.Client, keyPrefix string) *RedisDomainCache {
	if keyPrefix == "" {
		keyPrefix = defaultDomainKeyPrefix
	}
	return &RedisDomainCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached slug for domain
func (c *RedisDomainCache) Get(ctx context.Context, domain string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.keyPrefix+domain).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read domain cache: %w", err)
	}
	if value == negativeMarker {
		return "", true, nil
	}
	return value, true, nil
}

// Set caches slug for domain. An empty slug caches a negative result.
func (c *RedisDomainCache) Set(ctx context.Context, domain, slug string, ttl time.Duration) error {
	value := slug
	if value == "" {
		value = negativeMarker
	}
	if err := c.client.Set(ctx, c.keyPrefix+domain, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write domain cache: %w", err)
	}
	return nil
}

// Invalidate drops the entries of the given domains
func (c *RedisDomainCache) Invalidate(ctx context.Context, domains ...string) error {
	keys := make([]string, 0, len(domains))
	for _, d := range domains {
		if d != "" {
			keys = append(keys, c.keyPrefix+d)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate domain cache: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable
func (c *RedisDomainCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisDomainCache) Close() error {
	return c.client.Close()
}

var _ identity.CustomDomainCache = (*RedisDomainCache)(nil)
