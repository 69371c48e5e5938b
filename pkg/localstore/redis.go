package localstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
)

const redisKeyNamespace = "lub:kv:"

// RedisStore is an optional shared backend for deployments where several POS
// terminals want one cache. Same contract as the SQLite store.
type RedisStore struct {
	raw *redis.Client
}

// OpenRedis bootstraps a Redis-backed store and verifies connectivity.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{raw: raw}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return parsed, nil
	}
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}

func (s *RedisStore) Get(key string) (string, bool) {
	val, err := s.raw.Get(context.Background(), redisKeyNamespace+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(key, value string) error {
	return s.raw.Set(context.Background(), redisKeyNamespace+key, value, 0).Err()
}

func (s *RedisStore) Remove(key string) error {
	return s.raw.Del(context.Background(), redisKeyNamespace+key).Err()
}

func (s *RedisStore) Close() error {
	return s.raw.Close()
}
