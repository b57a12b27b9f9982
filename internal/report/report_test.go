package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

type fakeUsers struct {
	configs []models.UserScheduleConfig
}

func (f *fakeUsers) GetEnabledUsers(ctx context.Context) ([]models.UserScheduleConfig, error) {
	return f.configs, nil
}

type fakeAggs struct {
	daily  map[int64]*models.DailyAggregate
	weekly map[int64]*models.WeeklyAggregate
	err    error
}

func (f *fakeAggs) ReadDaily(ctx context.Context, userID int64, date time.Time) (*models.DailyAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.daily[userID], nil
}

func (f *fakeAggs) ReadWeekly(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.weekly[userID], nil
}

func (f *fakeAggs) WeekRows(ctx context.Context, weekStart time.Time) ([]models.WeeklyAggregate, error) {
	var rows []models.WeeklyAggregate
	for _, agg := range f.weekly {
		if agg != nil {
			rows = append(rows, *agg)
		}
	}
	return rows, nil
}

type fakeSink struct {
	sent    map[int64][]string
	failFor map[int64]bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{sent: make(map[int64][]string), failFor: make(map[int64]bool)}
}

func (f *fakeSink) SendText(ctx context.Context, userID int64, text string) error {
	if f.failFor[userID] {
		return errors.New("delivery failed")
	}
	f.sent[userID] = append(f.sent[userID], text)
	return nil
}

func scheduleConfig(id int64, quota int) models.UserScheduleConfig {
	return models.UserScheduleConfig{UserID: id, Enabled: true, StartTime: "09:00", EndTime: "21:00", MessagesPerDay: quota}
}

func TestDailyScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		quota int
		agg   models.DailyAggregate
		want  int
	}{
		{
			name:  "two missed tasks",
			quota: 5,
			agg:   models.DailyAggregate{CompletedTasks: 3, QualitySum: 240, ExpectedTasks: 5},
			want:  60, // avg 80 - 2*10
		},
		{
			name:  "everything done",
			quota: 3,
			agg:   models.DailyAggregate{CompletedTasks: 3, QualitySum: 270, ExpectedTasks: 3},
			want:  90,
		},
		{
			name:  "penalty floors at zero",
			quota: 10,
			agg:   models.DailyAggregate{CompletedTasks: 1, QualitySum: 50, ExpectedTasks: 10},
			want:  0, // 50 - 90
		},
		{
			name:  "expected high-water beats lowered quota",
			quota: 3,
			agg:   models.DailyAggregate{CompletedTasks: 5, QualitySum: 400, ExpectedTasks: 8},
			want:  50, // planned 8, missed 3 → 80 - 30
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyScore(tt.quota, &tt.agg); got != tt.want {
				t.Fatalf("DailyScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func newReporter(users *fakeUsers, aggs *fakeAggs, sink *fakeSink) *Reporter {
	clock := fakeClock{now: time.Date(2025, time.March, 10, 21, 0, 0, 0, time.UTC)}
	return New(users, aggs, sink, clock, time.UTC)
}

func TestSendDailyReports(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{configs: []models.UserScheduleConfig{scheduleConfig(1, 5), scheduleConfig(2, 5)}}
	aggs := &fakeAggs{daily: map[int64]*models.DailyAggregate{
		1: {UserID: 1, CompletedTasks: 3, QualitySum: 240, ExpectedTasks: 5},
		// user 2 answered nothing today
	}}
	sink := newFakeSink()

	if err := newReporter(users, aggs, sink).SendDailyReports(context.Background()); err != nil {
		t.Fatalf("SendDailyReports error: %v", err)
	}

	if len(sink.sent[1]) != 1 {
		t.Fatal("user 1 expected a daily report")
	}
	if !strings.Contains(sink.sent[1][0], "60/100") {
		t.Fatalf("report %q should carry the 60/100 score", sink.sent[1][0])
	}
	if len(sink.sent[2]) != 0 {
		t.Fatal("user 2 has no aggregate and must be skipped silently")
	}
}

func TestSendDailyReportsDeliveryFailureSkipsUser(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{configs: []models.UserScheduleConfig{scheduleConfig(1, 3), scheduleConfig(2, 3)}}
	aggs := &fakeAggs{daily: map[int64]*models.DailyAggregate{
		1: {UserID: 1, CompletedTasks: 3, QualitySum: 270, ExpectedTasks: 3},
		2: {UserID: 2, CompletedTasks: 2, QualitySum: 150, ExpectedTasks: 3},
	}}
	sink := newFakeSink()
	sink.failFor[1] = true

	if err := newReporter(users, aggs, sink).SendDailyReports(context.Background()); err != nil {
		t.Fatalf("SendDailyReports error: %v", err)
	}
	if len(sink.sent[2]) != 1 {
		t.Fatal("delivery failure for user 1 must not block user 2")
	}
}

func TestSendWeeklyReportsSkipsIdleUsers(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{configs: []models.UserScheduleConfig{scheduleConfig(1, 3), scheduleConfig(2, 3), scheduleConfig(3, 3)}}
	aggs := &fakeAggs{weekly: map[int64]*models.WeeklyAggregate{
		1: {UserID: 1, TotalTasks: 21, CompletedTasks: 18, AverageQuality: 86},
		2: {UserID: 2, TotalTasks: 10, CompletedTasks: 0}, // nothing completed
		// user 3 has no rows at all
	}}
	sink := newFakeSink()

	if err := newReporter(users, aggs, sink).SendWeeklyReports(context.Background()); err != nil {
		t.Fatalf("SendWeeklyReports error: %v", err)
	}

	if len(sink.sent[1]) != 1 {
		t.Fatal("user 1 expected a weekly report")
	}
	if len(sink.sent[2]) != 0 || len(sink.sent[3]) != 0 {
		t.Fatal("users with zero completed tasks must receive no weekly report")
	}
}

func TestWeeklyTierThresholds(t *testing.T) {
	t.Parallel()
	gold := weeklyTier(90, 25)
	if !strings.Contains(gold, "Золотая") {
		t.Fatalf("tier %q, want gold", gold)
	}
	silver := weeklyTier(75, 12)
	if !strings.Contains(silver, "Серебряная") {
		t.Fatalf("tier %q, want silver", silver)
	}
	bronze := weeklyTier(55, 3)
	if !strings.Contains(bronze, "Бронзовая") {
		t.Fatalf("tier %q, want bronze", bronze)
	}
	// High quality alone is not enough for gold
	if got := weeklyTier(95, 5); strings.Contains(got, "Золотая") {
		t.Fatalf("tier %q, five tasks must not reach gold", got)
	}
}

func TestExportWeeklyWorkbook(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	aggs := &fakeAggs{weekly: map[int64]*models.WeeklyAggregate{
		1: {UserID: 1, TotalTasks: 10, CompletedTasks: 8, AverageQuality: 77.5},
	}}

	buf, err := newReporter(users, aggs, newFakeSink()).ExportWeeklyWorkbook(context.Background())
	if err != nil {
		t.Fatalf("ExportWeeklyWorkbook error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a non-empty workbook")
	}
}
