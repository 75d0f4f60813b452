// Package cache provides a JSON value cache backed by Redis, with an
// in-process fallback when no Redis address is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmchain/farmchain/config"
	"github.com/medatechnology/goutil/medattlmap"
	"github.com/redis/go-redis/v9"
)

// Store is implemented by every cache backend.
type Store interface {
	// Get unmarshals the value under key into dest. It reports false on a
	// miss or on any decode error.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Connect dials Redis using the configured address and verifies it with a
// ping. Callers decide whether a failure is fatal.
func Connect(ctx context.Context) (*redis.Client, error) {
	addr := config.RedisAddr()
	if addr == "" {
		return nil, errors.New("cache: REDIS_ADDR not configured")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// ── Redis ────────────────────────────────────────────────────────────────────

type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an existing client. Keys are namespaced with prefix.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.prefix+key, data, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.rdb.Del(ctx, full...).Err()
}

// ── Memory ───────────────────────────────────────────────────────────────────

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local cache. maxTTL bounds how long any entry lives;
// expired entries are evicted by the map's own ticker.
type Memory struct {
	m *medattlmap.TTLMap
}

func NewMemory(maxTTL, sweep time.Duration) *Memory {
	return &Memory{m: medattlmap.NewTTLMap(maxTTL, sweep)}
}

func (c *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	v, ok := c.m.Get(key)
	if !ok {
		return false
	}
	e, ok := v.(memoryEntry)
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		c.m.Delete(key)
		return false
	}
	return json.Unmarshal(e.data, dest) == nil
}

func (c *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.m.Put(key, 0, e)
	return nil
}

func (c *Memory) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.m.Delete(k)
	}
	return nil
}

// Nop never stores anything. Used when caching is disabled.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) bool                 { return false }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Del(context.Context, ...string) error                          { return nil }
