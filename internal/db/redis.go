package db

import (
	"github.com/redis/go-redis/v9"

	"github.com/mirukee/snow-recorder/internal/config"
)

// ConnectRedis returns nil when no address is configured; the stream hub
// degrades to in-process fan-out in that case.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
