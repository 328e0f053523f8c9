package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-jsonform/internal/config"
	"github.com/goliatone/go-jsonform/pkg/formcache"
	"github.com/goliatone/go-jsonform/pkg/formcache/redisstore"
	"github.com/goliatone/go-jsonform/pkg/formcache/sqlitestore"
)

const purgeInterval = time.Minute

// openStore builds the configured snapshot store. The returned func releases
// it and stops background purging.
func openStore(ctx context.Context, cfg config.Cache, logger *zap.Logger) (formcache.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redisstore.New(client)
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		return store, func() { client.Close() }, nil

	case "sqlite":
		db, err := sql.Open("sqlite", cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		store, err := sqlitestore.New(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		stop := every(ctx, purgeInterval, func() {
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired snapshots", zap.Error(err))
				return
			}
			logger.Debug("purged expired snapshots", zap.Int64("count", n))
		})
		return store, func() { stop(); db.Close() }, nil

	default:
		store := formcache.NewMemoryStore()
		stop := every(ctx, purgeInterval, func() {
			logger.Debug("swept expired snapshots", zap.Int("count", store.Sweep()))
		})
		return store, stop, nil
	}
}

// every runs fn on each tick until ctx ends or the returned func is called.
func every(ctx context.Context, interval time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return cancel
}
