package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore keeps the allow-list of live refresh tokens, keyed by jti.
type SessionStore interface {
	Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error
	Active(ctx context.Context, jti string, userID uint) (bool, error)
	Revoke(ctx context.Context, jti string) error
}

type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "refresh:"}
}

func (s *RedisSessionStore) Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+jti, strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *RedisSessionStore) Active(ctx context.Context, jti string, userID uint) (bool, error) {
	value, err := s.client.Get(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == strconv.FormatUint(uint64(userID), 10), nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, s.prefix+jti).Err()
}
