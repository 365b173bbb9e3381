// Package cache provides the shared Redis leaderboard cache. Redis is
// optional; every caller tolerates a nil cache and falls through to
// Postgres.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/studybot/quizcore/pkg/log"
	"github.com/studybot/quizcore/pkg/storage"
)

// LeaderboardTTL bounds how stale a cached leaderboard may get.
const LeaderboardTTL = 5 * time.Minute

// LeaderboardCache keeps ranked XP totals in Redis sorted sets, one set per
// scope. Scope key 0 is the global board.
type LeaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache connects to Redis at addr. A failed ping returns an
// error so the caller can run uncached instead.
func NewLeaderboardCache(addr string) (*LeaderboardCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.ApplicationLogger().Info("Redis leaderboard cache connected", "addr", addr)
	return &LeaderboardCache{client: client}, nil
}

// Close releases the Redis connection.
func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}

func leaderboardKey(guildID int64) string {
	if guildID == 0 {
		return "leaderboard:global"
	}
	return fmt.Sprintf("leaderboard:guild:%d", guildID)
}

// Set replaces the cached board for a scope.
func (c *LeaderboardCache) Set(ctx context.Context, guildID int64, entries []storage.LeaderboardEntry) error {
	key := leaderboardKey(guildID)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	for _, e := range entries {
		pipe.ZAdd(ctx, key, &redis.Z{
			Score:  float64(e.TotalXP),
			Member: strconv.FormatInt(e.UserID, 10),
		})
	}
	pipe.Expire(ctx, key, LeaderboardTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache leaderboard %s: %w", key, err)
	}
	return nil
}

// Get returns the cached board, or nil, nil on a cache miss. Levels are not
// cached; callers needing them go to the store.
func (c *LeaderboardCache) Get(ctx context.Context, guildID int64, limit int) ([]storage.LeaderboardEntry, error) {
	key := leaderboardKey(guildID)

	results, err := c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard %s: %w", key, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	entries := make([]storage.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, storage.LeaderboardEntry{
			Rank:    i + 1,
			UserID:  userID,
			TotalXP: int64(z.Score),
		})
	}
	return entries, nil
}

// Invalidate drops the cached boards a user's result can affect.
func (c *LeaderboardCache) Invalidate(ctx context.Context, guildID int64) {
	keys := []string{leaderboardKey(0)}
	if guildID != 0 {
		keys = append(keys, leaderboardKey(guildID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.ApplicationLogger().Warn("Failed to invalidate leaderboard cache", "err", err)
	}
}
