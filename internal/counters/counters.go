// Package counters is the volatile day-counter store backing the dispatch
// loop. Counters live in Redis under a typed (user, date) key and expire on
// their own; losing them only means a user may receive one extra task after a
// restart, which is acceptable for this data.
package counters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

const (
	fieldSent   = "sent"
	fieldLastAt = "last_at"

	// Keys outlive their calendar day by one day so a tick running right at
	// midnight still sees yesterday's counters, then Redis drops them.
	keyTTL = 48 * time.Hour
)

// Store is the Redis-backed DayCounters adapter.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis using a URL like redis://host:6379/0.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// dayKey builds the composite key for one user and calendar day.
func dayKey(userID int64, date time.Time) string {
	return fmt.Sprintf("counters:%d:%s", userID, date.Format("2006-01-02"))
}

// Get returns the counters for the user's given calendar day. A missing key
// yields zero counters, which is the normal state before the first dispatch.
func (s *Store) Get(ctx context.Context, userID int64, date time.Time) (models.DayCounters, error) {
	var c models.DayCounters

	fields, err := s.rdb.HGetAll(ctx, dayKey(userID, date)).Result()
	if err != nil {
		return c, fmt.Errorf("failed to read day counters: %w", err)
	}
	if len(fields) == 0 {
		return c, nil
	}

	if v, ok := fields[fieldSent]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("corrupt sent counter %q for user %d: %w", v, userID, err)
		}
		c.TasksSentToday = n
	}
	if v, ok := fields[fieldLastAt]; ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c, fmt.Errorf("corrupt last_at %q for user %d: %w", v, userID, err)
		}
		c.LastTaskTime = t
	}
	return c, nil
}

// MarkSent advances the counters after a confirmed successful delivery:
// increments tasks_sent_today and records the dispatch time. Never called on
// a failed delivery, so failures are retried on the next tick.
func (s *Store) MarkSent(ctx context.Context, userID int64, date time.Time, at time.Time) error {
	key := dayKey(userID, date)

	pipe := s.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, fieldSent, 1)
	pipe.HSet(ctx, key, fieldLastAt, at.Format(time.RFC3339))
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to advance day counters: %w", err)
	}
	return nil
}
