package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// timerGrace keeps cached timer keys around long enough to survive restarts
// and admin review, then lets Redis collect them.
const timerGrace = 7 * 24 * time.Hour

// TimerCache persists per-(user, task) start timestamps and expired flags in
// Redis so they survive page reloads without hitting the document store on
// every countdown tick. A nil client degrades to empty state; the resolver
// then falls back to the remote record's StartedAt.
type TimerCache struct {
	rdb *redis.Client
}

func NewTimerCache(rdb *redis.Client) *TimerCache {
	return &TimerCache{rdb: rdb}
}

func startKey(userID, taskID uint) string {
	return fmt.Sprintf("task:start:%d:%d", userID, taskID)
}

func expiredKey(userID, taskID uint) string {
	return fmt.Sprintf("task:expired:%d:%d", userID, taskID)
}

// State loads the cached timer snapshot. Cache errors degrade to empty state
// rather than failing the caller.
func (c *TimerCache) State(ctx context.Context, userID, taskID uint) TimerState {
	var state TimerState
	if c == nil || c.rdb == nil {
		return state
	}
	if v, err := c.rdb.Get(ctx, startKey(userID, taskID)).Result(); err == nil {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			t := time.Unix(unix, 0)
			state.StartedAt = &t
		}
	}
	if v, err := c.rdb.Get(ctx, expiredKey(userID, taskID)).Result(); err == nil && v == "1" {
		state.Expired = true
	}
	return state
}

// MarkStarted records the start timestamp with a TTL past the effective
// deadline (or the grace window when the task has none).
func (c *TimerCache) MarkStarted(ctx context.Context, userID, taskID uint, at time.Time, deadline *time.Time) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	ttl := timerGrace
	if deadline != nil {
		ttl = time.Until(*deadline) + timerGrace
	}
	return c.rdb.Set(ctx, startKey(userID, taskID), strconv.FormatInt(at.Unix(), 10), ttl).Err()
}

// MarkExpired persists the expired flag once the budget is observed to have
// elapsed, so later renders do not re-derive it. Cleared only on restart.
func (c *TimerCache) MarkExpired(ctx context.Context, userID, taskID uint) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, expiredKey(userID, taskID), "1", timerGrace).Err()
}

// Clear drops both keys; called on restart.
func (c *TimerCache) Clear(ctx context.Context, userID, taskID uint) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, startKey(userID, taskID), expiredKey(userID, taskID)).Err()
}
