package redis

// Package redis provides Redis-based adapters for authweb.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/authweb/internal/domain/auth"
	"github.com/target/authweb/internal/ports"
)

// DefaultUserPrefix namespaces cached users.
const DefaultUserPrefix = "authweb:user:"

var _ ports.UserStore = (*UserStore)(nil)

// UserStore caches resolved users in Redis, keyed by session key.
// Entries expire through Redis TTLs.
type UserStore struct {
	client redis.UniversalClient
	prefix string
}

// NewUserStore creates a Redis user store with the default prefix.
func NewUserStore(client redis.UniversalClient) *UserStore {
	return NewUserStoreWithPrefix(client, DefaultUserPrefix)
}

// NewUserStoreWithPrefix creates a Redis user store with a custom key prefix.
func NewUserStoreWithPrefix(client redis.UniversalClient, prefix string) *UserStore {
	if prefix == "" {
		prefix = DefaultUserPrefix
	}
	return &UserStore{client: client, prefix: prefix}
}

// Get returns the cached user, or (nil, nil) on a miss.
func (s *UserStore) Get(ctx context.Context, key string) (*domainauth.User, error) {
	if key == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var u domainauth.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal cached user: %w", err)
	}
	return &u, nil
}

// Set stores u under key for ttl. A non-positive ttl is a no-op.
func (s *UserStore) Set(ctx context.Context, key string, u domainauth.User, ttl time.Duration) error {
	if key == "" || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Delete drops the cached user for key.
func (s *UserStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}
