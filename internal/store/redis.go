package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisPrefix namespaces state blobs in a shared redis database.
const redisPrefix = "kellerblick:" + keyPrefix

// RedisStorage persists blobs in redis so several storefront replicas share state.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedis connects to the redis server at url (redis://[user:pass@]host:port/db).
func NewRedis(ctx context.Context, url string, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if logger != nil {
		logger.Info("Redis connection established", "addr", opts.Addr, "db", opts.DB)
	}

	return NewRedisFromClient(client, logger), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{client: client, logger: logger}
}

// Get retrieves a value by key.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if errors.Is(err, redis.ErrClosed) {
		return nil, ErrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value by key without expiry.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys scans the storefront namespace.
func (r *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Ping checks the connection.
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisStorage) Close() error {
	if r.logger != nil {
		r.logger.Info("Closing redis connection")
	}
	return r.client.Close()
}
