package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"roster/internal/auth/models"
)

var (
	cacheGetDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_token_cache_get_duration_ms",
		Help:    "Latency of verified-token cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for cached verified identities
	verifiedTokenKeyPrefix = "vtc:jti:"
)

// RedisCache is the shared-state implementation for deployments where
// multiple instances must agree on which tokens have already been verified.
type RedisCache struct {
	client *redis.Client
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Put stores the identity with the given TTL. Uses SET with expiry so the
// entry vanishes on its own.
func (c *RedisCache) Put(ctx context.Context, jti string, identity models.Identity, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, verifiedTokenKeyPrefix+jti, payload, ttl).Err()
}

// Get returns the cached identity if present. A missing or expired key is
// not an error.
func (c *RedisCache) Get(ctx context.Context, jti string) (models.Identity, bool, error) {
	start := time.Now()
	defer func() {
		cacheGetDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return models.Identity{}, false, nil
	}
	raw, err := c.client.Get(ctx, verifiedTokenKeyPrefix+jti).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, false, nil
	}
	if err != nil {
		return models.Identity{}, false, err
	}
	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return models.Identity{}, false, err
	}
	return identity, true, nil
}

func (c *RedisCache) Purge(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	return c.client.Del(ctx, verifiedTokenKeyPrefix+jti).Err()
}
