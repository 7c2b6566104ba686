package cache

import (
	"context"
	"testing"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	got, ok, err := c.Get(ctx, "clients", "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.NoError(t, c.Set(ctx, "clients", "k", []insight.Insight{{ID: "debtors"}}))
	assert.NoError(t, c.Invalidate(ctx, "clients"))
	assert.NoError(t, c.Close())
}

func TestKey(t *testing.T) {
	a := Key([]byte(`{"domain":"clients"}`))
	b := Key([]byte(`{"domain":"clients"}`))
	c := Key([]byte(`{"domain":"finance"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "insightwatch:clients:abc", entryKey("clients", "abc"))
	assert.Equal(t, "insightwatch:clients:keys", indexKey("clients"))
}

func TestNew_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	assert.Equal(t, DefaultTTL, New(client, 0).ttl)
	assert.Equal(t, time.Minute, New(client, time.Minute).ttl)
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://localhost:6379/notanumber", time.Minute)
	assert.Error(t, err)
}
