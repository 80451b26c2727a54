package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UpdateChannel carries campaign mutation notifications to sibling processes
// so they can refresh their cached snapshots without waiting for the reload
// ticker.
const UpdateChannel = "campaign-updates"

// RedisStore wraps a redis client for daily engagement counters and update
// notifications.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// IncrementDailyEvent increments today's counter for an event type on a
// campaign. A 48h TTL is applied on first set so yesterday's key survives
// long enough for day-over-day stats.
func (r *RedisStore) IncrementDailyEvent(campaignID int, eventType string) error {
	key := fmt.Sprintf("%s:campaign:%d:%s", eventType, campaignID, time.Now().Format("2006-01-02"))
	val, err := r.Client.Incr(r.Ctx, key).Result()
	if err != nil {
		return err
	}
	if val == 1 {
		r.Client.Expire(r.Ctx, key, 48*time.Hour)
	}
	return nil
}

// DailyCount returns the counter for an event type on a campaign for the
// given day. Missing keys read as zero.
func (r *RedisStore) DailyCount(campaignID int, eventType string, day time.Time) int64 {
	key := fmt.Sprintf("%s:campaign:%d:%s", eventType, campaignID, day.Format("2006-01-02"))
	n, _ := r.Client.Get(r.Ctx, key).Int64()
	return n
}

// PublishUpdate notifies subscribers that a campaign changed.
func (r *RedisStore) PublishUpdate(payload []byte) error {
	return r.Client.Publish(r.Ctx, UpdateChannel, payload).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
