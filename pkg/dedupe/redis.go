package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis"
)

// DefaultTTL keeps processed keys a little longer than the default lookback window.
const DefaultTTL = 45 * 24 * time.Hour

const keyPrefix = "smsexpensor:seen:"

// RedisConfig holds the Redis store configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL is how long a processed key is remembered. Defaults to DefaultTTL.
	TTL time.Duration
}

// Redis is a Store shared between daemon instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.WithContext(ctx).Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to Redis", "addr", cfg.Addr, "db", cfg.DB)

	return &Redis{client: client, ttl: cfg.TTL, logger: logger}, nil
}

// Seen implements Store.
func (r *Redis) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.client.WithContext(ctx).Exists(keyPrefix + key).Result()
	if err != nil {
		return false, fmt.Errorf("checking key: %w", err)
	}
	return n > 0, nil
}

// Mark implements Store.
func (r *Redis) Mark(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := r.client.WithContext(ctx).Pipeline()
	for _, k := range keys {
		pipe.Set(keyPrefix+k, time.Now().Unix(), r.ttl)
	}
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("marking %d keys: %w", len(keys), err)
	}

	r.logger.Debug("marked messages as processed", "count", len(keys))
	return nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
