package report

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

const missPenalty = 10 // score points lost per planned-but-missed task

// DailyScore computes the 0-100 motivational score for one day: the average
// answer quality minus 10 points for every planned task the user did not
// complete. Planned is the higher of the current quota and the day's
// expected_tasks high-water mark, so lowering the quota late in the day does
// not erase already-planned work.
func DailyScore(quota int, agg *models.DailyAggregate) int {
	planned := quota
	if agg.ExpectedTasks > planned {
		planned = agg.ExpectedTasks
	}
	missed := planned - agg.CompletedTasks
	if missed < 0 {
		missed = 0
	}
	score := int(math.Round(agg.AverageQuality())) - missed*missPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// dailyMessage picks the motivational tier for a score.
func dailyMessage(score, completed int) string {
	var tier string
	switch {
	case score >= 90:
		tier = "Блестяще! Так держать! 🏆"
	case score >= 70:
		tier = "Отличная работа, прогресс заметен! 💪"
	case score >= 50:
		tier = "Неплохо! Завтра получится ещё лучше. 🙂"
	case score >= 20:
		tier = "Главное - регулярность. Не сдавайся! 🌱"
	default:
		tier = "Сегодня было сложно, но каждый шаг важен. Завтра новый день! 🌅"
	}
	return fmt.Sprintf("Итоги дня: выполнено заданий - %d, итоговый балл - %d/100.\n%s", completed, score, tier)
}

// SendDailyReports sends the end-of-day report to every enabled user. A
// missing aggregate or a failed delivery skips that user and moves on.
func (r *Reporter) SendDailyReports(ctx context.Context) error {
	today := r.clock.Now().In(r.loc)

	users, err := r.users.GetEnabledUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users for daily report: %w", err)
	}

	for _, cfg := range users {
		agg, err := r.aggs.ReadDaily(ctx, cfg.UserID, today)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("daily report: aggregate read failed, skipping user")
			continue
		}
		if agg == nil {
			// No answers today, nothing to report.
			continue
		}

		score := DailyScore(cfg.MessagesPerDay, agg)
		if err := r.sink.SendText(ctx, cfg.UserID, dailyMessage(score, agg.CompletedTasks)); err != nil {
			log.Warn().Err(err).Int64("user_id", cfg.UserID).Msg("daily report: delivery failed, skipping user")
			continue
		}
	}
	return nil
}
