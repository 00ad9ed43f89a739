package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Connect returns a client for addr, or nil when Redis does not answer so
// the service can run uncached.
func Connect(ctx context.Context, addr string, log zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Redis not available. Running without Redis.")
		_ = client.Close()
		return nil
	}
	log.Info().Str("addr", addr).Msg("Redis connected successfully.")
	return client
}

// Cache stores JSON values next to version counters. Readers fold the
// current version into their keys, so bumping it invalidates every entry
// built from the old one. A Cache over a nil client is a no-op.
type Cache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewCache(client *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{client: client, log: log}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value under key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
		return err
	}
	return nil
}

// GetVersion returns the counter under key, 0 when unset or unreachable.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: version read failed")
	}
	return v
}

func (c *Cache) IncrementVersion(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: version bump failed")
	}
	return v
}
