package respcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// redisKeyPrefix namespaces cached responses in a shared Redis.
const redisKeyPrefix = "movierank:resp:"

// RedisConfig holds connection parameters for the Redis store.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	TTL      time.Duration // <= 0 means entries never expire
}

// RedisStore caches responses in Redis via rueidis.
type RedisStore struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wraps an existing client (e.g. a rueidis mock).
func NewRedisStoreWithClient(client rueidis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the stored body or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(redisKeyPrefix + key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis GET: %w", err)
	}
	return data, nil
}

// Set stores value, with the configured TTL if any.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	var cmd rueidis.Completed
	if s.ttl > 0 {
		cmd = s.client.B().Set().Key(redisKeyPrefix + key).Value(rueidis.BinaryString(value)).Ex(s.ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(redisKeyPrefix + key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

// Clear deletes every key under the movierank prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(redisKeyPrefix + "*").Count(100).Build()
		entry, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return fmt.Errorf("redis SCAN: %w", err)
		}
		if len(entry.Elements) > 0 {
			del := s.client.B().Del().Key(entry.Elements...).Build()
			if err := s.client.Do(ctx, del).Error(); err != nil {
				return fmt.Errorf("redis DEL: %w", err)
			}
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStore) Close() {
	s.client.Close()
}
