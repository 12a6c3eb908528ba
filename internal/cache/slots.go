package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/schedule"
)

// SlotCache holds recently computed 7-day slot snapshots per doctor. A miss is
// never an error: callers fall through to the generator. Bookings and
// cancellations invalidate the doctor's entry so a stale snapshot can only
// survive for the configured TTL.
type SlotCache interface {
	Get(ctx context.Context, doctorID uuid.UUID) ([][]schedule.Slot, bool)
	Set(ctx context.Context, doctorID uuid.UUID, days [][]schedule.Slot)
	Invalidate(ctx context.Context, doctorID uuid.UUID)
}

type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisSlotCache {
	return &RedisSlotCache{client: client, ttl: ttl, log: log}
}

// slotKey buckets entries on the half-hour lattice the generator steps over.
// An entry cached just before a boundary is never served after it, so a
// snapshot cannot offer day-0 slots that have already passed.
func slotKey(doctorID uuid.UUID, now time.Time) string {
	bucket := now.UTC().Truncate(30 * time.Minute).Unix()
	return fmt.Sprintf("slots:%s:%d", doctorID, bucket)
}

func (c *RedisSlotCache) Get(ctx context.Context, doctorID uuid.UUID) ([][]schedule.Slot, bool) {
	raw, err := c.client.Get(ctx, slotKey(doctorID, time.Now())).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("slot cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var days [][]schedule.Slot
	if err := json.Unmarshal(raw, &days); err != nil {
		c.log.Warn("slot cache entry corrupt, dropping", zap.Error(err))
		c.Invalidate(ctx, doctorID)
		return nil, false
	}
	return days, true
}

func (c *RedisSlotCache) Set(ctx context.Context, doctorID uuid.UUID, days [][]schedule.Slot) {
	raw, err := json.Marshal(days)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, slotKey(doctorID, time.Now()), raw, c.ttl).Err(); err != nil {
		c.log.Warn("slot cache write failed", zap.Error(err))
	}
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := c.client.Del(ctx, slotKey(doctorID, time.Now())).Err(); err != nil {
		c.log.Warn("slot cache invalidation failed", zap.Error(err))
	}
}

// NopSlotCache disables caching; every read recomputes from the store.
type NopSlotCache struct{}

func (NopSlotCache) Get(context.Context, uuid.UUID) ([][]schedule.Slot, bool) { return nil, false }
func (NopSlotCache) Set(context.Context, uuid.UUID, [][]schedule.Slot)        {}
func (NopSlotCache) Invalidate(context.Context, uuid.UUID)                    {}
