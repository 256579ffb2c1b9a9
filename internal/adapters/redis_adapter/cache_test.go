package redis_a_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/inventory-be/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-be/test/helpers"
)

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, 5*time.Minute, helpers.TestLogger())

	type marker struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}

	tests := []struct {
		name  string
		key   string
		value any
		dest  func() any
	}{
		{
			name:  "stores_and_retrieves_string",
			key:   "test:string",
			value: "test value",
			dest:  func() any { return new(string) },
		},
		{
			name:  "stores_and_retrieves_struct",
			key:   "test:struct",
			value: marker{ProductID: 1, Quantity: 8},
			dest:  func() any { return new(marker) },
		},
		{
			name:  "stores_and_retrieves_slice",
			key:   "test:slice",
			value: []string{"FC176", "FC177"},
			dest:  func() any { return new([]string) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value))

			dest := tt.dest()
			require.NoError(t, cache.Get(ctx, tt.key, dest))

			switch got := dest.(type) {
			case *string:
				assert.Equal(t, tt.value, *got)
			case *marker:
				assert.Equal(t, tt.value, *got)
			case *[]string:
				assert.Equal(t, tt.value, *got)
			}
		})
	}
}

func TestCache_GetMiss(t *testing.T) {
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())

	var out string
	err := cache.Get(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:key", 1, 2*time.Second))
	assert.True(t, r.Server.Exists("ttl:key"))

	r.Server.FastForward(3 * time.Second)
	assert.False(t, r.Server.Exists("ttl:key"))
}

func TestCache_DeleteAndExists(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())

	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))

	ok, err := cache.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "a"))

	ok, err = cache.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cache.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, cache.Delete(ctx))
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())

	key := redis_a.BuildKey(redis_a.PrefixLowStock, "1")

	first, err := cache.SetNX(ctx, key, 8, time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := cache.SetNX(ctx, key, 7, time.Hour)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestCache_PingFailsWhenServerDown(t *testing.T) {
	r := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())

	require.NoError(t, cache.Ping(context.Background()))

	r.Server.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestCache_BuildKey(t *testing.T) {
	assert.Equal(t, "stock:low:1", redis_a.BuildKey(redis_a.PrefixLowStock, "1"))
	assert.Equal(t, "product", redis_a.BuildKey(redis_a.PrefixProduct))
}
