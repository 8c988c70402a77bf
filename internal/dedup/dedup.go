// Package dedup filters duplicate delivery callbacks with a Redis SETNX
// marker. The agent re-posts an event whenever its own scan windows
// overlap, so the processor must treat event IDs as at-least-once.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a seen event ID is remembered. The agent
	// never replays events older than a day.
	DefaultTTL = 24 * time.Hour

	keyPrefix = "hradmin:seen:"
)

type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{rdb: rdb, ttl: DefaultTTL}
}

// IsNew reports whether the event ID has not been seen before. A true
// result also marks the ID as seen, atomically.
func (f *Filter) IsNew(ctx context.Context, eventID string) (bool, error) {
	set, err := f.rdb.SetNX(ctx, keyPrefix+eventID, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}
	return set, nil
}
