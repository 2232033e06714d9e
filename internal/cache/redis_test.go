package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against STOREFRONT_TEST_REDIS (host:port) when set.
func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS not set")
	}

	ctx := context.Background()
	c := New(redis.NewClient(&redis.Options{Addr: addr}), time.Minute)
	defer c.Close()

	type entry struct {
		Name string `json:"name"`
	}

	require.NoError(t, c.Set(ctx, "storefront-test:a", entry{Name: "a"}))
	require.NoError(t, c.Set(ctx, "storefront-test:b", entry{Name: "b"}))

	var got entry
	require.NoError(t, c.Get(ctx, "storefront-test:a", &got))
	assert.Equal(t, "a", got.Name)

	require.NoError(t, c.DeleteByPattern(ctx, "storefront-test:*"))
	err := c.Get(ctx, "storefront-test:b", &got)
	assert.True(t, errors.Is(err, redis.Nil))

	assert.NoError(t, c.Delete(ctx))
}
