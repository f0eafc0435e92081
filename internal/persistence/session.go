package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-tracker/internal/observability"
)

// SessionStore is the key-value contract the ticket store syncs against.
// Save is best-effort: failures are logged and swallowed, never returned.
// Load reports false when the key is absent, unreadable, or malformed so the
// caller falls back to its default.
type SessionStore interface {
	Save(ctx context.Context, key string, value any)
	Load(ctx context.Context, key string, out any) bool
	Clear(ctx context.Context)
}

// RedisSessionStore persists JSON blobs under namespaced Redis keys. A
// non-zero TTL scopes the keys to a session: every write refreshes the
// expiry.
type RedisSessionStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRedisSessionStore builds the adapter over an established client.
func NewRedisSessionStore(r *Redis, prefix string, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *RedisSessionStore {
	return &RedisSessionStore{
		client:  r.Client,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Save serializes value and writes it under key.
func (s *RedisSessionStore) Save(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.fail("serialize", key, err)
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err(); err != nil {
		s.fail("write", key, err)
	}
}

// Load reads and deserializes the value under key into out.
func (s *RedisSessionStore) Load(ctx context.Context, key string, out any) bool {
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.fail("read", key, err)
		}
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.fail("deserialize", key, err)
		return false
	}
	return true
}

// Clear removes all keys owned by this namespace.
func (s *RedisSessionStore) Clear(ctx context.Context) {
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		s.fail("scan", "*", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.fail("delete", "*", err)
	}
}

func (s *RedisSessionStore) fail(op, key string, err error) {
	if s.metrics != nil {
		s.metrics.RecordPersistenceFailure(key)
	}
	s.logger.Warn("session store failure",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}
