// Package cache persists last-known-good notification snapshots in Redis so
// a restarted agent can render badges before its first fetch completes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"borrowhub-notify/internal/common/database"
	"borrowhub-notify/internal/common/errors"
	"borrowhub-notify/internal/notify/store"
)

const keyPrefix = "borrowhub:notifications:"

// SnapshotCache stores one JSON snapshot per user with a TTL.
type SnapshotCache struct {
	redis *database.RedisClient
	key   string
	ttl   time.Duration
}

func New(redisClient *database.RedisClient, userID string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		redis: redisClient,
		key:   keyPrefix + userID,
		ttl:   ttl,
	}
}

// Save persists the snapshot, replacing any previous one for this user.
func (c *SnapshotCache) Save(ctx context.Context, snap store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.NewCacheError(fmt.Errorf("marshal snapshot: %w", err))
	}

	if err := c.redis.Set(ctx, c.key, payload, c.ttl); err != nil {
		return errors.NewCacheError(err)
	}
	return nil
}

// Load returns the cached snapshot, or nil when none exists.
func (c *SnapshotCache) Load(ctx context.Context) (*store.Snapshot, error) {
	raw, err := c.redis.Get(ctx, c.key)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewCacheError(err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, errors.NewCacheError(fmt.Errorf("unmarshal snapshot: %w", err))
	}
	return &snap, nil
}

// Clear drops the cached snapshot, used on logout.
func (c *SnapshotCache) Clear(ctx context.Context) error {
	if err := c.redis.Del(ctx, c.key); err != nil {
		return errors.NewCacheError(err)
	}
	return nil
}
