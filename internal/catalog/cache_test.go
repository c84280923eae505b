package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

var rice = domain.Product{Name: "rice", Price: 15000, Unit: "kg", Category: domain.CategoryFood}

func TestRedisCache_Get_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	data, _ := json.Marshal(rice)
	require.NoError(t, mr.Set(cacheKey("rice"), string(data)))

	got, err := cache.Get(context.Background(), "Rice")
	require.NoError(t, err)
	assert.Equal(t, rice, got)
}

func TestRedisCache_Get_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)
	_, err := cache.Get(context.Background(), "rice")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Get_CorruptedData(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("rice"), "{not json"))

	_, err := cache.Get(context.Background(), "rice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Set_WithJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, cache.Set(context.Background(), rice))

	assert.True(t, mr.Exists(cacheKey("rice")))
	ttl := mr.TTL(cacheKey("rice"))
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, 6*time.Minute)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, cache.Set(context.Background(), rice))
	require.NoError(t, cache.Delete(context.Background(), "rice"))
	assert.False(t, mr.Exists(cacheKey("rice")))
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "rice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
