package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mbolis/survey-flow/model"
)

// RedisClient is the subset of go-redis used by Redis, so tests can pass any
// client pointed at a throwaway server.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis keeps snapshots under prefix+session+":"+slug with the session TTL,
// refreshed on every save.
type Redis struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client RedisClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects and verifies the connection with PING.
func DialRedis(ctx context.Context, opts *redis.Options, prefix string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "store.redis %s: ping failed", opts.Addr)
	}
	return NewRedis(client, prefix, ttl), nil
}

func (r *Redis) Load(ctx context.Context, key Key) (model.Snapshot, error) {
	buf, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "redis.get_snapshot")
	}
	return decode(buf)
}

func (r *Redis) Save(ctx context.Context, key Key, snap model.Snapshot) error {
	buf, err := encode(snap)
	if err != nil {
		return err
	}
	return errors.Wrap(r.client.Set(ctx, r.key(key), buf, r.ttl).Err(), "redis.save_snapshot")
}

func (r *Redis) Delete(ctx context.Context, key Key) error {
	return errors.Wrap(r.client.Del(ctx, r.key(key)).Err(), "redis.delete_snapshot")
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(k Key) string {
	return r.prefix + k.Session + ":" + k.Slug
}
