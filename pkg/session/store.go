package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medatechnology/goutil/medattlmap"
	"github.com/redis/go-redis/v9"
)

// Data is the key/value payload of one session.
type Data map[string]interface{}

func (d Data) clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Store persists session payloads keyed by opaque token.
type Store interface {
	// Get returns the payload for token. ok is false for unknown or
	// expired tokens.
	Get(ctx context.Context, token string) (data Data, ok bool, err error)
	Set(ctx context.Context, token string, data Data, ttl time.Duration) error
	Destroy(ctx context.Context, token string) error
}

// ── Memory ───────────────────────────────────────────────────────────────────

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Entries older than maxTTL
// are pruned by the map's ticker every sweep interval; per-entry TTLs
// shorter than maxTTL are honoured on read.
type MemoryStore struct {
	m *medattlmap.TTLMap
}

func NewMemoryStore(maxTTL, sweep time.Duration) *MemoryStore {
	return &MemoryStore{m: medattlmap.NewTTLMap(maxTTL, sweep)}
}

func (s *MemoryStore) Get(_ context.Context, token string) (Data, bool, error) {
	v, ok := s.m.Get(token)
	if !ok {
		return nil, false, nil
	}
	e, ok := v.(memoryEntry)
	if !ok || time.Now().After(e.expiresAt) {
		s.m.Delete(token)
		return nil, false, nil
	}
	return e.data.clone(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, token string, data Data, ttl time.Duration) error {
	s.m.Put(token, 0, memoryEntry{data: data.clone(), expiresAt: time.Now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.m.Delete(token)
	return nil
}

// Len reports how many sessions are held, expired or not.
func (s *MemoryStore) Len() int { return s.m.Len() }

// Prune drops every entry whose TTL has elapsed and returns how many were
// removed.
func (s *MemoryStore) Prune() int {
	now := time.Now()
	removed := 0
	for token := range s.m.Map() {
		// Map exposes the TTL map's wrappers; Get unwraps the stored entry.
		v, ok := s.m.Get(token)
		if !ok {
			removed++
			continue
		}
		if e, ok := v.(memoryEntry); !ok || now.After(e.expiresAt) {
			s.m.Delete(token)
			removed++
		}
	}
	return removed
}

// ── Redis ────────────────────────────────────────────────────────────────────

const redisPrefix = "farmchain:session:"

// RedisStore shares sessions between server instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, token string) (Data, bool, error) {
	raw, err := s.rdb.Get(ctx, redisPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: redis get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, token string, data Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return s.rdb.Set(ctx, redisPrefix+token, raw, ttl).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, redisPrefix+token).Err()
}
