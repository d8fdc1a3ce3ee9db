package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultMaxEntryBytes is the durable tier's per-entry size ceiling. The
// backing store enforces a hard limit, so oversize writes are rejected
// up front instead of failing downstream.
const DefaultMaxEntryBytes = 8 * 1024

const defaultKeyPrefix = "replyforge:cache:"

// RedisTier is the durable tier backed by redis. Values are stored as
// JSON; expiry is delegated to redis TTLs.
type RedisTier struct {
	client        redis.UniversalClient
	keyPrefix     string
	maxEntryBytes int
}

// RedisTierConfig tunes a redis tier; zero values select defaults.
type RedisTierConfig struct {
	KeyPrefix     string
	MaxEntryBytes int
}

// NewRedisTier creates a durable tier on top of an existing redis client.
func NewRedisTier(client redis.UniversalClient, config RedisTierConfig) *RedisTier {
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaultKeyPrefix
	}

	if config.MaxEntryBytes <= 0 {
		config.MaxEntryBytes = DefaultMaxEntryBytes
	}

	return &RedisTier{
		client:        client,
		keyPrefix:     config.KeyPrefix,
		maxEntryBytes: config.MaxEntryBytes,
	}
}

func (r *RedisTier) Name() string { return "redis" }

func (r *RedisTier) Get(ctx context.Context, key string) (any, bool, error) {
	payload, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	var value any

	err = json.Unmarshal(payload, &value)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode cached value for key %s: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisTier) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %s: %w", key, err)
	}

	if len(payload) > r.maxEntryBytes {
		return fmt.Errorf("key %s is %d bytes: %w", key, len(payload), ErrValueTooLarge)
	}

	err = r.client.Set(ctx, r.keyPrefix+key, payload, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	return nil
}

func (r *RedisTier) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.keyPrefix+key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (r *RedisTier) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		err := r.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	return nil
}

// Cleanup is a no-op for redis: expired entries are reaped by the server.
func (r *RedisTier) Cleanup(_ context.Context) (int, error) {
	return 0, nil
}
