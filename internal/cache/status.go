// Package cache keeps a short-lived copy of task statuses in Redis so
// the high-traffic status endpoint doesn't hit Postgres on every poll.
// Reads may be briefly stale; transitions refresh the entry best-effort.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GFRDINDIA/Helper/internal/common"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(addr string) (*StatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &StatusCache{client: client}, nil
}

func (sc *StatusCache) Get(ctx context.Context, taskID string) (common.TaskStatus, bool, error) {
	value, err := sc.client.Get(ctx, statusKeyPrefix+taskID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}

		return "", false, err
	}

	return common.TaskStatus(value), true, nil
}

func (sc *StatusCache) Set(ctx context.Context, taskID string, status common.TaskStatus) error {
	return sc.client.Set(ctx, statusKeyPrefix+taskID, string(status), statusTTL).Err()
}

func (sc *StatusCache) Close() error {
	return sc.client.Close()
}
