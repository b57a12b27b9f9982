package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// AggregateRepository handles the per-period answer rollups. The answer path
// writes them, the reporter only reads. Rows are append-only counters keyed by
// (user_id, date); nothing ever deletes or decrements one.
type AggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository creates a new repository instance
func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// ReadDaily returns the aggregate for one user and day, nil when the user
// answered nothing that day.
func (r *AggregateRepository) ReadDaily(ctx context.Context, userID int64, date time.Time) (*models.DailyAggregate, error) {
	query := `
		SELECT user_id, date, total_tasks, completed_tasks, quality_sum,
		       expected_tasks, correct_answers, incorrect_answers
		FROM daily_aggregates
		WHERE user_id = $1 AND date = $2
	`
	var agg models.DailyAggregate
	err := r.db.GetContext(ctx, &agg, query, userID, date.Format("2006-01-02"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read daily aggregate: %w", err)
	}
	return &agg, nil
}

// ReadWeekly sums the seven days starting at weekStart into a single rollup,
// nil when the user has no rows in that range.
func (r *AggregateRepository) ReadWeekly(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyAggregate, error) {
	query := `
		SELECT COALESCE(SUM(total_tasks), 0)     AS total_tasks,
		       COALESCE(SUM(completed_tasks), 0) AS completed_tasks,
		       COALESCE(SUM(quality_sum), 0)     AS quality_sum,
		       COUNT(*)                          AS days
		FROM daily_aggregates
		WHERE user_id = $1 AND date >= $2 AND date < $3
	`
	var row struct {
		TotalTasks     int `db:"total_tasks"`
		CompletedTasks int `db:"completed_tasks"`
		QualitySum     int `db:"quality_sum"`
		Days           int `db:"days"`
	}
	from := weekStart.Format("2006-01-02")
	to := weekStart.AddDate(0, 0, 7).Format("2006-01-02")
	if err := r.db.GetContext(ctx, &row, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("failed to read weekly aggregate: %w", err)
	}
	if row.Days == 0 {
		return nil, nil
	}

	agg := &models.WeeklyAggregate{
		UserID:         userID,
		WeekStart:      weekStart,
		TotalTasks:     row.TotalTasks,
		CompletedTasks: row.CompletedTasks,
	}
	if row.CompletedTasks > 0 {
		agg.AverageQuality = float64(row.QualitySum) / float64(row.CompletedTasks)
	}
	return agg, nil
}

// RecordAnswer folds one scored answer into the user's aggregate for the day.
// Creates the row on the first answer of the day; expected_tasks keeps the
// high-water mark of the configured quota.
func (r *AggregateRepository) RecordAnswer(ctx context.Context, userID int64, date time.Time, quality, quota int, correct bool) error {
	correctInc, incorrectInc := 0, 0
	if correct {
		correctInc = 1
	} else {
		incorrectInc = 1
	}
	query := `
		INSERT INTO daily_aggregates
			(user_id, date, total_tasks, completed_tasks, quality_sum, expected_tasks, correct_answers, incorrect_answers)
		VALUES ($1, $2, 1, 1, $3, $4, $5, $6)
		ON CONFLICT (user_id, date) DO UPDATE SET
			total_tasks = daily_aggregates.total_tasks + 1,
			completed_tasks = daily_aggregates.completed_tasks + 1,
			quality_sum = daily_aggregates.quality_sum + EXCLUDED.quality_sum,
			expected_tasks = GREATEST(daily_aggregates.expected_tasks, EXCLUDED.expected_tasks),
			correct_answers = daily_aggregates.correct_answers + EXCLUDED.correct_answers,
			incorrect_answers = daily_aggregates.incorrect_answers + EXCLUDED.incorrect_answers
	`
	_, err := r.db.ExecContext(ctx, query,
		userID, date.Format("2006-01-02"), quality, quota, correctInc, incorrectInc,
	)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return nil
}

// WeekRows returns one summary row per user for the admin export, covering the
// seven days starting at weekStart. Users with nothing completed are included
// so the export shows the full roster.
func (r *AggregateRepository) WeekRows(ctx context.Context, weekStart time.Time) ([]models.WeeklyAggregate, error) {
	query := `
		SELECT user_id,
		       COALESCE(SUM(total_tasks), 0)     AS total_tasks,
		       COALESCE(SUM(completed_tasks), 0) AS completed_tasks,
		       COALESCE(SUM(quality_sum), 0)     AS quality_sum
		FROM daily_aggregates
		WHERE date >= $1 AND date < $2
		GROUP BY user_id
		ORDER BY user_id
	`
	var rows []struct {
		UserID         int64 `db:"user_id"`
		TotalTasks     int   `db:"total_tasks"`
		CompletedTasks int   `db:"completed_tasks"`
		QualitySum     int   `db:"quality_sum"`
	}
	from := weekStart.Format("2006-01-02")
	to := weekStart.AddDate(0, 0, 7).Format("2006-01-02")
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to read week rows: %w", err)
	}

	aggs := make([]models.WeeklyAggregate, 0, len(rows))
	for _, row := range rows {
		agg := models.WeeklyAggregate{
			UserID:         row.UserID,
			WeekStart:      weekStart,
			TotalTasks:     row.TotalTasks,
			CompletedTasks: row.CompletedTasks,
		}
		if row.CompletedTasks > 0 {
			agg.AverageQuality = float64(row.QualitySum) / float64(row.CompletedTasks)
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}
