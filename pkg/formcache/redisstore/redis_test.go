package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goliatone/go-jsonform/pkg/formcache"
	"github.com/goliatone/go-jsonform/pkg/formcache/redisstore"
)

const prefix = "jsonform:test:"

type RedisStoreTestSuite struct {
	suite.Suite
	ctx    context.Context
	client *redis.Client
	cache  *formcache.Cache
}

func TestRedisStoreTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container tests are skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	testcontainers.CleanupContainer(t, redisC)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	s := &RedisStoreTestSuite{ctx: context.Background(), client: client}
	suite.Run(t, s)
}

func (s *RedisStoreTestSuite) SetupTest() {
	iter := s.client.Scan(s.ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(s.ctx) {
		s.Require().NoError(s.client.Del(s.ctx, iter.Val()).Err())
	}
	s.Require().NoError(iter.Err())

	cache, err := formcache.New(redisstore.New(s.client),
		formcache.WithPrefix(prefix),
		formcache.WithTTL(time.Second),
	)
	s.Require().NoError(err)
	s.cache = cache
}

func (s *RedisStoreTestSuite) TestRoundTrip() {
	snap := formcache.Snapshot{DataFields: []string{"name", "save"}, NonDataFields: []string{"save"}}
	key, err := s.cache.Put(s.ctx, "", snap)
	s.Require().NoError(err)

	got, err := s.cache.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(snap, got)

	ttl, err := s.client.TTL(s.ctx, prefix+key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreTestSuite) TestMissingKey() {
	_, err := s.cache.Get(s.ctx, "does-not-exist")
	s.ErrorIs(err, formcache.ErrNotFound)
}

func (s *RedisStoreTestSuite) TestExpiry() {
	key, err := s.cache.Put(s.ctx, "", formcache.Snapshot{DataFields: []string{"a"}})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, err := s.cache.Get(s.ctx, key)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)

	_, err = s.cache.Get(s.ctx, key)
	s.ErrorIs(err, formcache.ErrNotFound)
}

func (s *RedisStoreTestSuite) TestDelete() {
	key, err := s.cache.Put(s.ctx, "", formcache.Snapshot{})
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Delete(s.ctx, key))

	_, err = s.cache.Get(s.ctx, key)
	s.ErrorIs(err, formcache.ErrNotFound)
}

func (s *RedisStoreTestSuite) TestPing() {
	s.NoError(redisstore.New(s.client).Ping(s.ctx))
}
