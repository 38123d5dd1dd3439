package redis

import (
	"context"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/quipper/poc/gradebook/pkg/common/logger"
	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

// RedisRepo keeps entries as plain string keys without expiry.
type RedisRepo struct {
	client *goredis.Client
}

var _ kv.Repository = (*RedisRepo)(nil)

// NewRedisRepo connects to addr and verifies the connection with a PING.
func NewRedisRepo(ctx context.Context, addr string) (*RedisRepo, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	logger.Info("connected to redis at %s", addr)
	return &RedisRepo{client: client}, nil
}

// NewRedisRepoFromClient wraps an existing client, e.g. one built by the caller
// with TLS or auth options.
func NewRedisRepoFromClient(client *goredis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "get %s", key)
	}
	return value, true, nil
}

func (r *RedisRepo) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	return errors.Wrapf(r.client.Set(ctx, key, value, 0).Err(), "set %s", key)
}

func (r *RedisRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepo) Disconnect() { _ = r.client.Close() }
