package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/artbox-backend/internal/config"
)

// SessionStore tracks the active token ids (jti) of each user. A user may
// be signed in on several devices at once.
type SessionStore interface {
	Add(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error
	Has(ctx context.Context, userID uuid.UUID, jti string) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, jti string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// RedisSessionStore keeps sessions in a Redis set per user.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// Add registers jti and extends the set's expiry to ttl.
func (s *RedisSessionStore) Add(ctx context.Context, userID uuid.UUID, jti string, ttl time.Duration) error {
	key := config.CacheKey.UserSessionKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, jti)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) Has(ctx context.Context, userID uuid.UUID, jti string) (bool, error) {
	return s.rdb.SIsMember(ctx, config.CacheKey.UserSessionKey(userID), jti).Result()
}

func (s *RedisSessionStore) Remove(ctx context.Context, userID uuid.UUID, jti string) error {
	return s.rdb.SRem(ctx, config.CacheKey.UserSessionKey(userID), jti).Err()
}

// Clear signs the user out everywhere.
func (s *RedisSessionStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}
