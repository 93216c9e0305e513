/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists the session token across client restarts.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_store.go github.com/Seednode/partybox-client/store Store

// Store loads and saves the session token. An absent token is the empty string,
// not an error.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
}

// StoreError is a sentinel error returned by store constructors.
type StoreError string

func (e StoreError) Error() string {
	return string(e)
}

const (
	ErrNilConfig      StoreError = "config cannot be nil"
	ErrNilRedisClient StoreError = "redis client cannot be nil"
	ErrEmptyPath      StoreError = "token file path cannot be empty"
)

// Open picks a store from location: redis:// and rediss:// URLs select redis,
// anything else is a file path. profile namespaces the redis key so several
// clients can share one server.
func Open(ctx context.Context, location, profile string) (Store, error) {
	if strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://") {
		opts, err := redis.ParseURL(location)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		return NewRedis(&Config{
			RedisClient: client,
			Key:         sessionKey(profile),
		})
	}

	return NewFile(location)
}

// Close releases whatever s holds open. Stores with nothing to release return
// nil.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
