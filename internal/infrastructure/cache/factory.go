package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DomainCache is a closable custom-domain cache
type DomainCache interface {
	identity.CustomDomainCache
	io.Closer
}

// DomainCacheFactory creates domain caches based on configuration
type DomainCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DomainCacheFactoryOption is a functional option for configuring the factory
type DomainCacheFactoryOption func(*DomainCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DomainCacheFactoryOption {
	return func(f *DomainCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) DomainCacheFactoryOption {
	return func(f *DomainCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDomainCacheFactory creates a new factory
func NewDomainCacheFactory(cfg config.RedisConfig, opts ...DomainCacheFactoryOption) *DomainCacheFactory {
	f := &DomainCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis cache when Redis is enabled and reachable, otherwise
// an in-memory cache if fallback is allowed.
func (f *DomainCacheFactory) Create(ctx context.Context) (DomainCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory domain cache")
		return NewInMemoryDomainCache(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis domain cache", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisDomainCache(client, ""), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for domain cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory domain cache. "+
		"Domain changes made on other instances are seen only after the cache TTL.",
		zap.Error(err),
	)
	return NewInMemoryDomainCache(), nil
}
