package httpfetch

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunCache memoizes values for the lifetime of a single ingest invocation —
// the ticker→CIK map in particular is expensive enough to fetch once and
// reuse across every adapter call within the same run.
type RunCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// InProcessCache is the default RunCache: a mutex-guarded map scoped to the
// process. Adequate for a single-invocation batch run; it is cleared by
// simply constructing a new one per run rather than by any expiry policy.
type InProcessCache struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewInProcessCache returns an empty InProcessCache.
func NewInProcessCache() *InProcessCache {
	return &InProcessCache{data: make(map[string]any)}
}

// Get implements RunCache.
func (c *InProcessCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set implements RunCache.
func (c *InProcessCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// RedisCache is a RunCache backed by Redis, for deployments that run
// multiple ingest processes concurrently and want to share the memoized
// ticker map across them rather than each process paying for its own.
// Values are stored through the supplied codec; callers decide how to
// serialize since RunCache deals in `any`.
type RedisCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	codec RedisCodec
}

// RedisCodec converts cache values to/from the byte strings Redis stores.
type RedisCodec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// NewRedisCache wraps an existing redis client. ttl bounds how long a
// memoized value survives; pass 0 to keep it for the life of the key
// (callers are expected to prefix keys with a run id in that case).
func NewRedisCache(rdb *redis.Client, codec RedisCodec, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, codec: codec}
}

// Get implements RunCache. Errors talking to Redis are treated as a cache
// miss — a memoization layer must never turn a transient Redis hiccup into
// a hard failure for the caller.
func (c *RedisCache) Get(key string) (any, bool) {
	raw, err := c.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set implements RunCache. Write failures are swallowed for the same reason
// reads are: the cache is an optimization, not a source of truth.
func (c *RedisCache) Set(key string, value any) {
	raw, err := c.codec.Encode(value)
	if err != nil {
		return
	}
	c.rdb.Set(context.Background(), key, raw, c.ttl)
}
