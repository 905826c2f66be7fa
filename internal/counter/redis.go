// Package counter hands out sequence numbers from Redis so that several API
// instances can share one order-number sequence.
package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/config"
)

const keyPrefix = "marketplace:seq:"

// Redis implements repository.Sequencer with INCR.
type Redis struct {
	client *redis.Client
}

// Connect opens a client and verifies it with PING.
func Connect(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	logrus.WithField("addr", cfg.Addr()).Info("Redis connection established")
	return &Redis{client: client}, nil
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context, name string) (int64, error) {
	value, err := r.client.Incr(ctx, keyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", name, err)
	}
	return value, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
