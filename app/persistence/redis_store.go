package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisSessionStore keeps states in redis. Every write refreshes the ttl.
type RedisSessionStore struct {
	rdb redisClient
	ttl time.Duration
}

var _ SessionStore = &RedisSessionStore{}

// NewRedisSessionStore connects to addr, which is either host:port or a
// redis:// URL.
func NewRedisSessionStore(addr, password string, db int, ttl time.Duration) (*RedisSessionStore, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if parsed, err := redis.ParseURL(addr); err == nil {
		opts = parsed
		if opts.Password == "" {
			opts.Password = password
		}
	}
	return &RedisSessionStore{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisSessionStore) Set(ctx context.Context, key string, value string) error {
	return r.rdb.Set(ctx, key, value, r.ttl).Err()
}

func (r *RedisSessionStore) Remove(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *RedisSessionStore) Close() error {
	return r.rdb.Close()
}
