package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
)

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis wraps the go-redis client and backs the revocation ledger.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if d := cfg.DialTimeout(); d > 0 {
		opts.DialTimeout = d
	}
	if d := cfg.OpTimeout(); d > 0 {
		opts.ReadTimeout = d
		opts.WriteTimeout = d
	}
	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// Get returns the value under key; a missing key is reported with ok=false.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if r == nil || r.Client == nil {
		return "", false, errRedisNotConfigured
	}
	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value without expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value expiring after ttl; zero means no expiry.
func (r *Redis) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Del(ctx, key).Err()
}
