// Package cache stores generated insights in Redis, keyed by domain and a
// hash of the request that produced them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "insightwatch"

// DefaultTTL applies when New is given a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Cache is a Redis-backed insight cache. A nil *Cache is valid and never
// hits, so callers need not check whether caching is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL, pings the server and returns a cache. A
// bare host:port is accepted as well.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Close releases the client. It is a no-op on a nil cache.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Key derives a cache key from request bytes.
func Key(parts ...[]byte) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Get returns the cached insights for domain and key. A miss returns
// ok == false with a nil error.
func (c *Cache) Get(ctx context.Context, domain, key string) (insights []insight.Insight, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, entryKey(domain, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &insights); err != nil {
		return nil, false, fmt.Errorf("decoding cached insights: %w", err)
	}
	return insights, true, nil
}

// Set stores insights for domain and key and remembers the key so
// Invalidate can drop it.
func (c *Cache) Set(ctx context.Context, domain, key string, insights []insight.Insight) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(insights)
	if err != nil {
		return err
	}
	k := entryKey(domain, key)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, k, data, c.ttl)
		p.SAdd(ctx, indexKey(domain), k)
		p.Expire(ctx, indexKey(domain), c.ttl)
		return nil
	})
	return err
}

// Invalidate drops every cached result of a domain.
func (c *Cache) Invalidate(ctx context.Context, domain string) error {
	if c == nil {
		return nil
	}
	keys, err := c.client.SMembers(ctx, indexKey(domain)).Result()
	if err != nil {
		return err
	}
	keys = append(keys, indexKey(domain))
	return c.client.Del(ctx, keys...).Err()
}

func entryKey(domain, key string) string {
	return keyPrefix + ":" + domain + ":" + key
}

func indexKey(domain string) string {
	return keyPrefix + ":" + domain + ":keys"
}
