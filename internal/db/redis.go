/**
 * @description
 * Redis connection manager using go-redis.
 * Used for the summary cache and the collection event channel.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - github.com/alicebob/miniredis/v2 (in-process fallback for one-shot commands)
 */

package db

import (
	"context"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/datadash-project/backend/internal/config"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes the Redis client
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}

	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 5 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 5 * time.Second
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = 10
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), opt.DialTimeout)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("✅ Connected to Redis")
	return client, nil
}

// ConnectRedisOrMemory falls back to an in-process miniredis when the
// configured Redis is unreachable. The returned cleanup must be called on exit.
func ConnectRedisOrMemory(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := ConnectRedis(cfg)
	if err == nil {
		return client, func() { _ = client.Close() }, nil
	}

	logger.Warn("Redis unavailable (%v), using in-memory redis; cache and events stay local to this process", err)
	mr, mrErr := miniredis.Run()
	if mrErr != nil {
		return nil, nil, mrErr
	}
	client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
