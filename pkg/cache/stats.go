package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-events/backend/internal/models"
)

// StatsTTL bounds how stale the cached per-event stats may be. Correctness
// never depends on the cache; every mutation deletes the key.
const StatsTTL = 30 * time.Second

// StatsCache caches per-event registration stats in Redis.
type StatsCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStatsCache creates a stats cache. A nil client disables caching.
func NewStatsCache(client *redis.Client, logger *zap.Logger) *StatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsCache{client: client, logger: logger}
}

func statsKey(eventID int64) string {
	return fmt.Sprintf("stats:event:%d", eventID)
}

// Get returns cached stats for an event, or nil on miss or any cache failure.
func (c *StatsCache) Get(ctx context.Context, eventID int64) *models.RegistrationStats {
	if c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, statsKey(eventID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache get failed", zap.Error(err), zap.Int64("event_id", eventID))
		}
		return nil
	}
	var stats models.RegistrationStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

// Set stores stats for an event with the cache TTL.
func (c *StatsCache) Set(ctx context.Context, stats *models.RegistrationStats) {
	if c.client == nil || stats == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey(stats.EventID), raw, StatsTTL).Err(); err != nil {
		c.logger.Warn("stats cache set failed", zap.Error(err), zap.Int64("event_id", stats.EventID))
	}
}

// Invalidate drops the cached stats for an event. Called after every
// registration mutation for that event.
func (c *StatsCache) Invalidate(ctx context.Context, eventID int64) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsKey(eventID)).Err(); err != nil {
		c.logger.Warn("stats cache invalidate failed", zap.Error(err), zap.Int64("event_id", eventID))
	}
}
