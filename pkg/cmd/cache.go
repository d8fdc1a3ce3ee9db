package cmd

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/replyforge/replyforge/pkg/cache"
)

// NewCache builds the tiered cache. An empty cacheURL yields a memory-only
// cache; a redis:// URL adds a durable Redis tier behind the memory tier.
func NewCache(logger *slog.Logger, cacheURL string) (*cache.TieredCache, error) {
	memory := cache.NewMemoryTier(cache.DefaultMemoryCapacity)

	if cacheURL == "" {
		return cache.NewTieredCache(logger, memory), nil
	}

	options, err := redis.ParseURL(cacheURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache URL: %w", err)
	}

	client := redis.NewClient(options)
	durable := cache.NewRedisTier(client, cache.RedisTierConfig{})

	return cache.NewTieredCache(logger, memory, durable), nil
}
