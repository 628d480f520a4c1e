// Package cache holds the redis-backed read-through cache for customer profiles.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/credicambios/internal/model"
)

const keyPrefix = "cliente:"

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Connect opens a redis client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// ProfileCache stores serialized customer profiles under "cliente:<id>".
// Every redis failure is logged and treated as a miss.
type ProfileCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewProfileCache creates a ProfileCache. A non-positive ttl defaults to five minutes.
func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{redis: rdb, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

// Get returns the cached profile for id, if any.
func (c *ProfileCache) Get(ctx context.Context, id string) (*model.CustomerProfile, bool) {
	data, err := c.redis.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		return nil, false
	default:
		log.Warn().Err(err).Str("customer_id", id).Msg("redis get failed, continuing with database")
		return nil, false
	}

	var profile model.CustomerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		log.Warn().Err(err).Str("customer_id", id).Msg("discarding unreadable cached profile")
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &profile, true
}

// Set stores profile for the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, profile *model.CustomerProfile) {
	if profile == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		log.Warn().Err(err).Str("customer_id", profile.Customer.ID).Msg("failed to marshal profile")
		return
	}
	if err := c.redis.Set(ctx, key(profile.Customer.ID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("customer_id", profile.Customer.ID).Msg("failed to cache profile")
	}
}

// Invalidate drops the cached profile for id.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, key(id)).Err(); err != nil {
		log.Warn().Err(err).Str("customer_id", id).Msg("failed to invalidate cached profile")
	}
}

// Flush drops every cached profile. Keys outside the prefix are left alone.
func (c *ProfileCache) Flush(ctx context.Context) {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			log.Warn().Err(err).Msg("failed to scan cached profiles")
			return
		}
		if len(keys) > 0 {
			n, err := c.redis.Del(ctx, keys...).Result()
			if err != nil {
				log.Warn().Err(err).Msg("failed to delete cached profiles")
				return
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	log.Info().Int64("keys", deleted).Msg("profile cache flushed")
}
