package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/model"
)

// RedisCache stores schedule pages as JSON in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, addr, password string, ttl time.Duration, logger *logrus.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.WithField("addr", addr).Info("Redis connection established")
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *RedisCache) GetPage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, bool) {
	data, err := c.client.Get(ctx, pageKey(simulationID, page, size)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Failed to read schedule page from cache")
		}
		return nil, false
	}

	var p model.SchedulePage
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.WithError(err).Warn("Discarding unreadable cached schedule page")
		return nil, false
	}
	return &p, true
}

func (c *RedisCache) SetPage(ctx context.Context, p *model.SchedulePage) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode schedule page: %w", err)
	}
	return c.client.Set(ctx, pageKey(p.SimulationID, p.Page, p.Size), data, c.ttl).Err()
}

// Invalidate drops every cached page of a simulation.
func (c *RedisCache) Invalidate(ctx context.Context, simulationID int64) error {
	iter := c.client.Scan(ctx, 0, simulationPattern(simulationID), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached pages: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
