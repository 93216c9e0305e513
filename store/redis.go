/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "partybox:session:"

func sessionKey(profile string) string {
	if profile == "" {
		profile = "default"
	}

	return sessionKeyPrefix + profile
}

// Config holds configuration for the Redis token store
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// Key holding the token; defaults to the "default" profile key
	Key string
}

type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis-backed token store
func NewRedis(cfg *Config) (*redisStore, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.RedisClient == nil {
		return nil, ErrNilRedisClient
	}

	key := cfg.Key
	if key == "" {
		key = sessionKey("")
	}

	return &redisStore{
		client: cfg.RedisClient,
		key:    key,
	}, nil
}

func (r *redisStore) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session token: %w", err)
	}

	return token, nil
}

// Save stores the token with no expiration; the server decides when a session
// is stale.
func (r *redisStore) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
