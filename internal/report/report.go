// Package report implements the daily and weekly progress reports. Both jobs
// only read the answer aggregates; they never touch the scheduler's day
// counters.
package report

import (
	"context"
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// UserSource lists the users who receive reports.
type UserSource interface {
	GetEnabledUsers(ctx context.Context) ([]models.UserScheduleConfig, error)
}

// AggregateSource reads the answer rollups written by the answer path.
type AggregateSource interface {
	ReadDaily(ctx context.Context, userID int64, date time.Time) (*models.DailyAggregate, error)
	ReadWeekly(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyAggregate, error)
	WeekRows(ctx context.Context, weekStart time.Time) ([]models.WeeklyAggregate, error)
}

// MessageSink delivers report texts to users.
type MessageSink interface {
	SendText(ctx context.Context, userID int64, text string) error
}

// Clock matches the scheduler's clock abstraction.
type Clock interface {
	Now() time.Time
}

// Reporter runs the two report jobs.
type Reporter struct {
	users UserSource
	aggs  AggregateSource
	sink  MessageSink
	clock Clock
	loc   *time.Location
}

// New creates a reporter anchored to the given zone.
func New(users UserSource, aggs AggregateSource, sink MessageSink, clock Clock, loc *time.Location) *Reporter {
	return &Reporter{users: users, aggs: aggs, sink: sink, clock: clock, loc: loc}
}
