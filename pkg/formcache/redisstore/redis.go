// Package redisstore implements formcache.Store on Redis. Expiry is delegated
// to Redis through SET ... EX, so entries disappear without any polling.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Store is a formcache.Store backed by a Redis client.
type Store struct {
	client redis.UniversalClient
}

var _ formcache.Store = (*Store)(nil)

// New wraps client. The client is owned by the caller.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Get reads key, mapping redis.Nil to formcache.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, formcache.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set writes value with SET ... EX ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks connectivity, used by health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
