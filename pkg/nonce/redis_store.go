package nonce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRedisKeyPrefix is the Redis key prefix for nonces
	DefaultRedisKeyPrefix = "nonce"
)

// KEYS[1] record key, KEYS[2] expiration index; ARGV[1] expiration ms, ARGV[2] id
var insertScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX") then
	redis.call("ZADD", KEYS[2], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// KEYS[1] record key, KEYS[2] expiration index; ARGV[1] id
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
	return false
end
redis.call("DEL", KEYS[1])
redis.call("ZREM", KEYS[2], ARGV[1])
return val
`)

// KEYS[1] expiration index; ARGV[1] now ms, ARGV[2] record key prefix
var deleteExpiredScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local removed = 0
for _, id in ipairs(ids) do
	removed = removed + redis.call("DEL", ARGV[2] .. id)
end
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
return removed
`)

// RedisStore implements Store interface using Redis.
// Each nonce is a string key holding its expiration in unix milliseconds;
// a sorted set indexes the keys by expiration for DeleteExpired.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// Compile-time interface compliance check
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-based nonce store
func NewRedisStore(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// buildKey creates a Redis key from a nonce ID
// Format: {prefix}:{id}
func (s *RedisStore) buildKey(id string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.keyPrefix + ":expirations"
}

func (s *RedisStore) NewID() string {
	return uuid.New().String()
}

// Insert stores the nonce with SET NX and indexes it by expiration
func (s *RedisStore) Insert(ctx context.Context, rec Record) error {
	expMs := rec.Expiration.UnixMilli()
	ok, err := insertScript.Run(ctx, s.client,
		[]string{s.buildKey(rec.ID), s.indexKey()},
		expMs, rec.ID,
	).Int()
	if err != nil {
		s.logger.Error("failed to insert nonce",
			zap.String("nonce", rec.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert nonce: %w", err)
	}
	if ok == 0 {
		return ErrDuplicate
	}

	s.logger.Debug("nonce stored",
		zap.String("nonce", rec.ID),
		zap.Int64("expiration_ms", expMs),
	)
	return nil
}

// Consume reads and deletes the nonce in a single script execution
func (s *RedisStore) Consume(ctx context.Context, id string) (*Record, error) {
	val, err := consumeScript.Run(ctx, s.client,
		[]string{s.buildKey(id), s.indexKey()},
		id,
	).Text()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to consume nonce",
			zap.String("nonce", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	expMs, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt nonce expiration %q: %w", val, err)
	}

	s.logger.Debug("nonce consumed", zap.String("nonce", id))
	return &Record{ID: id, Expiration: time.UnixMilli(expMs)}, nil
}

// DeleteExpired removes every nonce indexed with an expiration <= now
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	removed, err := deleteExpiredScript.Run(ctx, s.client,
		[]string{s.indexKey()},
		now.UnixMilli(), s.keyPrefix+":",
	).Int64()
	if err != nil {
		s.logger.Error("failed to delete expired nonces", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired nonces: %w", err)
	}
	return removed, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
