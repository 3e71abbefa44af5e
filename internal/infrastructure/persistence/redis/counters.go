package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// DefaultCountersKey is the hash holding per-event-type totals.
const DefaultCountersKey = "oompa:analytics:counts"

// hashCounter is the subset of *redis.Client used by EventCounter.
type hashCounter interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// EventCounter keeps a running count of analytics events per type.
type EventCounter struct {
	client  hashCounter
	key     string
	timeout time.Duration
}

// NewEventCounter creates a counter over client. An empty key uses
// DefaultCountersKey.
func NewEventCounter(client hashCounter, key string) *EventCounter {
	if key == "" {
		key = DefaultCountersKey
	}
	return &EventCounter{client: client, key: key, timeout: 2 * time.Second}
}

// Handle increments the counter for event. It is a shared.EventHandler.
func (c *EventCounter) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.HIncrBy(ctx, c.key, string(event.EventType()), 1).Err(); err != nil {
		return fmt.Errorf("count %s: %w", event.EventType(), err)
	}
	return nil
}

// Counts returns all totals recorded so far.
func (c *EventCounter) Counts(ctx context.Context) (map[shared.EventType]int64, error) {
	raw, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}

	out := make(map[shared.EventType]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", field, err)
		}
		out[shared.EventType(field)] = n
	}
	return out, nil
}
