package scheduler

import (
	"context"
	"fmt"
	"time"
)

// GetDailyProgress returns how many tasks went out today and the current
// quota, for UI display. The sent counter is the raw day counter: after a
// mid-day quota lowering it may exceed the quota, and that is reported as is.
func (s *Service) GetDailyProgress(ctx context.Context, userID int64) (sent, quota int, err error) {
	cfg, err := s.deps.Users.GetScheduleConfig(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if cfg == nil {
		return 0, 0, fmt.Errorf("user %d has no schedule settings", userID)
	}

	now := s.deps.Clock.Now().In(s.cfg.Location)
	counters, err := s.deps.Counters.Get(ctx, userID, now)
	if err != nil {
		return 0, 0, err
	}
	return counters.TasksSentToday, cfg.MessagesPerDay, nil
}

// EstimateNextTask predicts the next dispatch slot and its countdown label
// for UI display.
func (s *Service) EstimateNextTask(ctx context.Context, userID int64) (time.Time, string, error) {
	cfg, err := s.deps.Users.GetScheduleConfig(ctx, userID)
	if err != nil {
		return time.Time{}, "", err
	}
	if cfg == nil {
		return time.Time{}, "", fmt.Errorf("user %d has no schedule settings", userID)
	}

	now := s.deps.Clock.Now().In(s.cfg.Location)
	counters, err := s.deps.Counters.Get(ctx, userID, now)
	if err != nil {
		return time.Time{}, "", err
	}
	return EstimateNext(cfg, counters, now)
}
