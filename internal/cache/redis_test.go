package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econavix/internal/models"
)

func redisFromEnv(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("ECONAVIX_REDIS_ADDR")
	if addr == "" {
		t.Skip("ECONAVIX_REDIS_ADDR not set; skipping redis test")
	}
	rdb, err := NewClient(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func exerciseGeocodeCache(t *testing.T, rdb *redis.Client) {
	ctx := context.Background()
	c := NewGeocodeCache(rdb, time.Minute, nil)
	key := fmt.Sprintf("fwd:test-%d", time.Now().UnixNano())

	entry, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, c.Set(ctx, &models.GeocodeCacheEntry{
		Key:       key,
		Coords:    models.Coordinates{Lat: 40.7128, Lng: -74.006},
		Formatted: "New York, NY, USA",
	}))

	entry, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 40.7128, entry.Coords.Lat)
	assert.Equal(t, "New York, NY, USA", entry.Formatted)
	assert.False(t, entry.CreatedAt.IsZero())

	ttl, err := rdb.TTL(ctx, KeyPrefix+key).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "entry expires, got %s", ttl)

	require.NoError(t, rdb.Set(ctx, KeyPrefix+"fwd:garbage", "{nope", time.Minute).Err())
	entry, err = c.Get(ctx, "fwd:garbage")
	require.NoError(t, err)
	assert.Nil(t, entry, "unreadable entries are misses")

	require.NoError(t, c.Clear(ctx))
	entry, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGeocodeCache(t *testing.T) {
	exerciseGeocodeCache(t, redisFromEnv(t))
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}

func TestNewGeocodeCache_DefaultTTL(t *testing.T) {
	c := NewGeocodeCache(nil, 0, nil)
	assert.Equal(t, DefaultTTL, c.ttl)
}
