package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// RedisStoreConfig configures the Redis-backed document store.
type RedisStoreConfig struct {
	Namespace string
	TTL       time.Duration
}

// RedisStore stores result documents in Redis so dashboard consumers can read
// them without filesystem access to the pipeline host.
type RedisStore struct {
	client    redisCommander
	closeFn   func() error
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a Redis-backed document store.
func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	closeFn := func() error { return nil }
	if client != nil {
		closeFn = client.Close
	}
	return newRedisStoreFromCommander(client, closeFn, cfg)
}

func newRedisStoreFromCommander(client redisCommander, closeFn func() error, cfg RedisStoreConfig) *RedisStore {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "contrib-stats"
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return &RedisStore{
		client:    client,
		closeFn:   closeFn,
		namespace: namespace,
		ttl:       cfg.TTL,
	}
}

// Put replaces the named document and registers it in the name index.
func (s *RedisStore) Put(ctx context.Context, name string, payload []byte) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redis store is not initialized")
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.documentKey(name), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store document %s: %w", name, err)
	}
	if err := s.client.SAdd(ctx, s.indexKey(), name).Err(); err != nil {
		return fmt.Errorf("index document %s: %w", name, err)
	}
	return nil
}

// Get reads the named document.
func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("redis store is not initialized")
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	payload, err := s.client.Get(ctx, s.documentKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document %s: %w", name, err)
	}
	return payload, nil
}

// Names lists indexed document names sorted ascending. Documents that expired
// after indexing are still listed; Get reports them as missing.
func (s *RedisStore) Names(ctx context.Context) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("redis store is not initialized")
	}

	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

func (s *RedisStore) documentKey(name string) string {
	return strings.Join([]string{s.namespace, "results", name}, ":")
}

func (s *RedisStore) indexKey() string {
	return strings.Join([]string{s.namespace, "results", "_index"}, ":")
}
