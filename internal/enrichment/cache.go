package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
)

const (
	keyPrefix  = "grant-matcher:insights:"
	defaultTTL = 24 * time.Hour
)

// RedisOptions configures the Redis connection used by the cache.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// Cache stores analyzer results in Redis keyed by the profile content.
// Redis failures are logged and the analyzer is called directly.
type Cache struct {
	next   ai.Analyzer
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps next with a Redis cache. A non-positive ttl uses 24h.
func NewCache(next ai.Analyzer, client redis.Cmdable, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{next: next, client: client, ttl: ttl, logger: log}
}

// Key returns the cache key of a profile.
func Key(profile applicant.Profile) (string, error) {
	payload, err := json.Marshal(ai.ProfilePayload(profile))
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

// Analyze returns cached insights when present, otherwise calls the wrapped
// analyzer and stores its result.
func (c *Cache) Analyze(ctx context.Context, profile applicant.Profile) (*ai.Insights, error) {
	key, err := Key(profile)
	if err != nil {
		return nil, err
	}

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var insights ai.Insights
		if err := json.Unmarshal([]byte(cached), &insights); err == nil {
			c.logger.Debug("insights cache hit", zap.String("key", key))
			return &insights, nil
		}
		c.logger.Warn("dropping unreadable cached insights", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("insights cache miss", zap.String("key", key))
	default:
		c.logger.Warn("reading insights cache failed", zap.Error(err))
	}

	insights, err := c.next.Analyze(ctx, profile)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(insights)
	if err != nil {
		return insights, nil
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.logger.Warn("writing insights cache failed", zap.Error(err))
	}

	return insights, nil
}
