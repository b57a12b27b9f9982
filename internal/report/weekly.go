package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// weeklyTier returns the achievement tier for the week. Thresholds combine
// quality and volume so neither a single perfect answer nor a pile of sloppy
// ones reaches the top tier.
func weeklyTier(avgQuality float64, completed int) string {
	switch {
	case avgQuality >= 85 && completed >= 20:
		return "Золотая неделя! Ты занимался много и качественно. 🥇"
	case avgQuality >= 70 && completed >= 10:
		return "Серебряная неделя - стабильный, уверенный прогресс. 🥈"
	case avgQuality >= 50 || completed >= 5:
		return "Бронзовая неделя. Фундамент заложен, продолжаем! 🥉"
	default:
		return "Неделя была непростой, но ты не бросил. Это уже победа. ✊"
	}
}

// weekStart returns the first day of the 7-day span ending today.
func weekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -6)
}

// SendWeeklyReports sends the weekly achievement report. Users who completed
// nothing this week receive no message at all.
func (r *Reporter) SendWeeklyReports(ctx context.Context) error {
	now := r.clock.Now().In(r.loc)
	start := weekStart(now)

	users, err := r.users.GetEnabledUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users for weekly report: %w", err)
	}

	for _, cfg := range users {
		agg, err := r.aggs.ReadWeekly(ctx, cfg.UserID, start)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("weekly report: aggregate read failed, skipping user")
			continue
		}
		if agg == nil || agg.CompletedTasks == 0 {
			continue
		}

		text := fmt.Sprintf(
			"Итоги недели: выполнено %d из %d заданий, среднее качество %.0f/100.\n%s",
			agg.CompletedTasks, agg.TotalTasks, agg.AverageQuality,
			weeklyTier(agg.AverageQuality, agg.CompletedTasks),
		)
		if err := r.sink.SendText(ctx, cfg.UserID, text); err != nil {
			log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("weekly report: delivery failed, skipping user")
			continue
		}
	}
	return nil
}
