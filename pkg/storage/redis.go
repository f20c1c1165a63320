package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures ConnectRedis.
type RedisConfig struct {
	ConnectionURL  string        `env:"LINKOWL_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"LINKOWL_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"LINKOWL_REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"LINKOWL_REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// ConnectRedis parses cfg.ConnectionURL and pings the server until it answers,
// up to cfg.RetryAttempts times.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	for range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisStore keeps values in Redis, for hosts that share attribution state
// between processes. Keys carry no expiration.
type RedisStore struct {
	db redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{db: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, mapRedisError(err)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return mapRedisError(s.db.Set(ctx, key, value, 0).Err())
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return mapRedisError(s.db.Del(ctx, key).Err())
}

// Close terminates the Redis connection.
func (s *RedisStore) Close() error {
	return s.db.Close()
}

func mapRedisError(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return errors.Join(ErrClosed, err)
	}
	return err
}
