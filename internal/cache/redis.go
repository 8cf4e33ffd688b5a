package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
)

const (
	// KeyPrefix namespaces geocode entries in a shared Redis
	KeyPrefix = "econavix:geocode:"

	DefaultTTL = 30 * 24 * time.Hour
)

// NewClient connects to addr and verifies the connection
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// GeocodeCache stores geocoding answers in Redis with a TTL. It implements
// database.GeocodeCacheRepository.
type GeocodeCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewGeocodeCache wraps a client; ttl <= 0 uses DefaultTTL
func NewGeocodeCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *GeocodeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GeocodeCache{redis: rdb, ttl: ttl, logger: logging.OrNop(logger).Named("cache")}
}

// Get returns nil, nil on a miss
func (c *GeocodeCache) Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error) {
	val, err := c.redis.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry models.GeocodeCacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return &entry, nil
}

func (c *GeocodeCache) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, KeyPrefix+e.Key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", e.Key, err)
	}
	return nil
}

// Clear deletes every geocode entry under KeyPrefix
func (c *GeocodeCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	c.logger.Info("geocode cache cleared", zap.Int("keys", len(keys)))
	return nil
}
