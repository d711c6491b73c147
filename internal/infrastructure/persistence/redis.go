package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

// RedisStore keeps client state in one Redis hash per namespace, so
// several view server instances can share it
type RedisStore struct {
	client *redis.Client
	hash   string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg RedisConfig, namespace string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg.KeyPrefix, namespace), nil
}

// NewRedisStoreWithClient creates a store with an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, keyPrefix, namespace string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "storefront:"
	}
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{client: client, hash: keyPrefix + namespace}
}

// Get implements shared.KeyValueStore
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements shared.KeyValueStore
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete implements shared.KeyValueStore
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.hash, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Clear implements shared.KeyValueStore
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.hash).Err(); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Close implements shared.KeyValueStore
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ shared.KeyValueStore = (*RedisStore)(nil)
