// Package rankcache keeps the ranking tables mirrored into Redis sorted
// sets so rank and range lookups do not hit Postgres on every request.
// The cache is best effort: the updater refreshes it after each
// aggregation pass, and readers fall back to the database when a key is
// missing or Redis is down.
package rankcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/utils"
)

// Sorted-set keys, one per ranking metric.
const (
	KeyAcceptedCount = "ranking:accepted_count"
	KeyRatedPointSum = "ranking:rated_point_sum"
	KeyStreak        = "ranking:streak"
)

// Client wraps the Redis client for ranking lookups.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client using environment variables for
// configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", addr),
		zap.Int("db", db))

	return &Client{client: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Entry is one member of a ranking sorted set.
type Entry struct {
	UserID string
	Score  float64
}

// Replace rebuilds one metric's sorted set atomically: the new set is
// written under a scratch key and renamed over the live one, so readers
// never observe a half-filled set.
func (c *Client) Replace(ctx context.Context, key string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	scratch := key + ":next"
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, scratch)
	members := make([]redis.Z, len(entries))
	for i, entry := range entries {
		members[i] = redis.Z{Score: entry.Score, Member: entry.UserID}
	}
	pipe.ZAdd(ctx, scratch, members...)
	pipe.Rename(ctx, scratch, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace ranking set %s: %w", key, err)
	}

	c.logger.Debug("Replaced ranking set",
		zap.String("key", key),
		zap.Int("members", len(entries)))
	return nil
}

// Rank returns 1 plus the number of members with a strictly greater
// score, matching the database's tie semantics, and whether the set was
// present at all.
func (c *Client) Rank(ctx context.Context, key string, score float64) (int64, bool, error) {
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("check ranking set %s: %w", key, err)
	}
	if exists == 0 {
		return 0, false, nil
	}

	// "(score" is an exclusive bound, so ties share the same rank.
	lower := "(" + strconv.FormatFloat(score, 'f', -1, 64)
	above, err := c.client.ZCount(ctx, key, lower, "+inf").Result()
	if err != nil {
		return 0, false, fmt.Errorf("count ranking set %s: %w", key, err)
	}
	return above + 1, true, nil
}

// Score returns a user's cached metric value, and whether it was found.
func (c *Client) Score(ctx context.Context, key, userID string) (float64, bool, error) {
	score, err := c.client.ZScore(ctx, key, userID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read ranking score %s: %w", key, err)
	}
	return score, true, nil
}
