package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
)

// ConnectRedis opens the client shared by the cache, the settings channel and asynq.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	fmt.Printf("Connected to Redis at %s (db %d)\n", cfg.RedisAddr, cfg.RedisDB)
	return rdb, nil
}

func DisconnectRedis(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	fmt.Println("Redis connection closed.")
	return nil
}

// JSONCache stores JSON documents under "<prefix>:<id>". A nil client turns every
// call into a miss, so callers never need to check whether Redis is configured.
// Cache failures are logged and reported as misses.
type JSONCache[T any] struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewJSONCache[T any](rdb *redis.Client, prefix string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *JSONCache[T]) key(id string) string {
	return c.prefix + ":" + id
}

// Get returns the cached value and whether it was found.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Warning: cache read failed for %s: %v", c.key(id), err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("Warning: dropping undecodable cache entry %s: %v", c.key(id), err)
		c.Delete(ctx, id)
		return nil, false
	}
	return &v, true
}

func (c *JSONCache[T]) Set(ctx context.Context, id string, v *T) {
	if c.rdb == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Warning: cannot encode cache entry %s: %v", c.key(id), err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		log.Printf("Warning: cache write failed for %s: %v", c.key(id), err)
	}
}

func (c *JSONCache[T]) Delete(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		log.Printf("Warning: failed to invalidate cache entry %s: %v", c.key(id), err)
	}
}
