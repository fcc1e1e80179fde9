package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	config "github.com/kugather/signup-verification/configs"
)

// NewRedisClient creates a Redis client and checks the connection.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// Load the scripts up front so the first redemption does not pay for EVAL fallback.
	if err := LoadScripts(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// LoadScripts registers the store's Lua scripts with the server.
func LoadScripts(ctx context.Context, r redis.Scripter) error {
	for _, s := range []*redis.Script{getDelScript, hsetIfExistsScript} {
		if err := s.Load(ctx, r).Err(); err != nil {
			return fmt.Errorf("failed to load redis script: %w", err)
		}
	}
	return nil
}
