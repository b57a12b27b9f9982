package models

import "time"

// DailyAggregate is the per-user, per-day rollup of answered tasks.
// Created on the first answer of the day, counters only ever go up,
// rows are never deleted. Written by the answer path, read by the reporter.
type DailyAggregate struct {
	UserID           int64     `json:"user_id" db:"user_id"`
	Date             time.Time `json:"date" db:"date"` // calendar day, truncated
	TotalTasks       int       `json:"total_tasks" db:"total_tasks"`
	CompletedTasks   int       `json:"completed_tasks" db:"completed_tasks"`
	QualitySum       int       `json:"quality_sum" db:"quality_sum"`
	ExpectedTasks    int       `json:"expected_tasks" db:"expected_tasks"` // high-water mark of configured quota
	CorrectAnswers   int       `json:"correct_answers" db:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers" db:"incorrect_answers"`
}

// AverageQuality returns the mean answer quality for the day, 0 when nothing
// was completed.
func (a DailyAggregate) AverageQuality() float64 {
	if a.CompletedTasks == 0 {
		return 0
	}
	return float64(a.QualitySum) / float64(a.CompletedTasks)
}

// WeeklyAggregate is the 7-day rollup used by the weekly report.
type WeeklyAggregate struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	WeekStart      time.Time `json:"week_start" db:"week_start"`
	TotalTasks     int       `json:"total_tasks" db:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks" db:"completed_tasks"`
	AverageQuality float64   `json:"average_quality" db:"average_quality"`
}
