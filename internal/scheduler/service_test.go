package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUsers struct {
	configs []models.UserScheduleConfig
	err     error
}

func (f *fakeUsers) GetEnabledUsers(ctx context.Context) ([]models.UserScheduleConfig, error) {
	return f.configs, f.err
}

func (f *fakeUsers) GetScheduleConfig(ctx context.Context, userID int64) (*models.UserScheduleConfig, error) {
	for i := range f.configs {
		if f.configs[i].UserID == userID {
			cfg := f.configs[i]
			return &cfg, nil
		}
	}
	return nil, nil
}

type fakeCounters struct {
	data    map[string]models.DayCounters
	getErr  error
	markErr error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{data: make(map[string]models.DayCounters)}
}

func counterKey(userID int64, date time.Time) string {
	return fmt.Sprintf("%d:%s", userID, date.Format("2006-01-02"))
}

func (f *fakeCounters) Get(ctx context.Context, userID int64, date time.Time) (models.DayCounters, error) {
	if f.getErr != nil {
		return models.DayCounters{}, f.getErr
	}
	return f.data[counterKey(userID, date)], nil
}

func (f *fakeCounters) MarkSent(ctx context.Context, userID int64, date time.Time, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	c := f.data[counterKey(userID, date)]
	c.TasksSentToday++
	c.LastTaskTime = at
	f.data[counterKey(userID, date)] = c
	return nil
}

type fakeOracle struct {
	err   error
	calls int
}

func (f *fakeOracle) GenerateTask(ctx context.Context, difficulty int, topic string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return "Я учу немецкий каждый день.", "Ich lerne jeden Tag Deutsch.", nil
}

type fakeTasks struct {
	created []models.Task
}

func (f *fakeTasks) Create(ctx context.Context, task *models.Task) (string, error) {
	task.ID = fmt.Sprintf("task-%d", len(f.created)+1)
	f.created = append(f.created, *task)
	return task.ID, nil
}

type fakeSink struct {
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeSink) SendPracticeTask(ctx context.Context, userID int64, task *models.Task) error {
	if f.failFor[userID] {
		return errors.New("telegram rejected the message")
	}
	f.sent = append(f.sent, userID)
	return nil
}

type fixture struct {
	svc      *Service
	clock    *fakeClock
	users    *fakeUsers
	counters *fakeCounters
	oracle   *fakeOracle
	tasks    *fakeTasks
	sink     *fakeSink
}

func newFixture(t *testing.T, configs ...models.UserScheduleConfig) *fixture {
	t.Helper()
	f := &fixture{
		clock:    &fakeClock{now: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)},
		users:    &fakeUsers{configs: configs},
		counters: newFakeCounters(),
		oracle:   &fakeOracle{},
		tasks:    &fakeTasks{},
		sink:     &fakeSink{failFor: make(map[int64]bool)},
	}
	f.svc = New(Config{
		TickInterval:   5 * time.Minute,
		Location:       time.UTC,
		SendsPerSecond: 1000, // tests must not sit in the throttle
	}, Deps{
		Users:    f.users,
		Counters: f.counters,
		Oracle:   f.oracle,
		Tasks:    f.tasks,
		Sink:     f.sink,
		Clock:    f.clock,
	})
	return f
}

func userConfig(id int64, quota int) models.UserScheduleConfig {
	return models.UserScheduleConfig{
		UserID:         id,
		Enabled:        true,
		StartTime:      "09:00",
		EndTime:        "21:00",
		MessagesPerDay: quota,
		Difficulty:     1,
	}
}

func TestRunTickDispatchesAndAdvancesCounters(t *testing.T) {
	f := newFixture(t, userConfig(1, 3), userConfig(2, 3))

	f.svc.RunTick(context.Background())

	if len(f.sink.sent) != 2 {
		t.Fatalf("sent to %v, want both users", f.sink.sent)
	}
	if len(f.tasks.created) != 2 {
		t.Fatalf("created %d task records, want 2", len(f.tasks.created))
	}
	for _, id := range []int64{1, 2} {
		c, _ := f.counters.Get(context.Background(), id, f.clock.now)
		if c.TasksSentToday != 1 {
			t.Fatalf("user %d counter = %d, want 1", id, c.TasksSentToday)
		}
		if !c.LastTaskTime.Equal(f.clock.now) {
			t.Fatalf("user %d last task time = %v, want %v", id, c.LastTaskTime, f.clock.now)
		}
	}
}

func TestRunTickDeliveryFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, userConfig(1, 3))
	f.sink.failFor[1] = true

	f.svc.RunTick(context.Background())

	c, _ := f.counters.Get(context.Background(), 1, f.clock.now)
	if c.TasksSentToday != 0 || c.HasSentToday() {
		t.Fatalf("counters advanced after failed delivery: %+v", c)
	}

	// Next tick the delivery works and the user is picked up again.
	f.sink.failFor[1] = false
	f.clock.now = f.clock.now.Add(5 * time.Minute)
	f.svc.RunTick(context.Background())

	c, _ = f.counters.Get(context.Background(), 1, f.clock.now)
	if c.TasksSentToday != 1 {
		t.Fatalf("counter = %d after retry, want 1", c.TasksSentToday)
	}
}

func TestRunTickIsolatesPerUserFailures(t *testing.T) {
	f := newFixture(t, userConfig(1, 3), userConfig(2, 3))
	f.sink.failFor[1] = true

	f.svc.RunTick(context.Background())

	c, _ := f.counters.Get(context.Background(), 2, f.clock.now)
	if c.TasksSentToday != 1 {
		t.Fatal("failure for user 1 must not block user 2")
	}
}

func TestRunTickSkipsMalformedConfigs(t *testing.T) {
	broken := userConfig(1, 3)
	broken.StartTime = "whenever"
	f := newFixture(t, broken, userConfig(2, 3))

	f.svc.RunTick(context.Background())

	if len(f.sink.sent) != 1 || f.sink.sent[0] != 2 {
		t.Fatalf("sent to %v, want only user 2", f.sink.sent)
	}
}

func TestRunTickAbortsWhenCounterStoreDown(t *testing.T) {
	f := newFixture(t, userConfig(1, 3), userConfig(2, 3))
	f.counters.getErr = errors.New("connection refused")

	f.svc.RunTick(context.Background())

	if len(f.sink.sent) != 0 {
		t.Fatalf("sent to %v while the counter store was down", f.sink.sent)
	}
	if f.oracle.calls != 0 {
		t.Fatal("oracle called while the counter store was down")
	}
}

func TestRunTickHonorsQuotaAcrossTicks(t *testing.T) {
	f := newFixture(t, userConfig(1, 2))

	// Window 09:00-21:00, quota 2 → 360-minute interval. Walk the whole day
	// tick by tick; exactly two tasks may go out.
	for i := 0; i < 200; i++ {
		f.svc.RunTick(context.Background())
		f.clock.now = f.clock.now.Add(5 * time.Minute)
	}

	if len(f.sink.sent) != 2 {
		t.Fatalf("sent %d tasks over the day, want exactly 2", len(f.sink.sent))
	}
}

func TestCounterMonotonicAcrossQuotaChanges(t *testing.T) {
	f := newFixture(t, userConfig(1, 8))
	ctx := context.Background()

	// Eight tasks already out today.
	for i := 0; i < 8; i++ {
		if err := f.counters.MarkSent(ctx, 1, f.clock.now, f.clock.now); err != nil {
			t.Fatalf("MarkSent error: %v", err)
		}
	}

	// The user lowers the quota mid-day. Progress keeps the raw counter.
	f.users.configs[0].MessagesPerDay = 5

	sent, quota, err := f.svc.GetDailyProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetDailyProgress error: %v", err)
	}
	if sent != 8 || quota != 5 {
		t.Fatalf("GetDailyProgress = (%d, %d), want (8, 5)", sent, quota)
	}

	// And no further tasks go out today.
	f.svc.RunTick(ctx)
	c, _ := f.counters.Get(ctx, 1, f.clock.now)
	if c.TasksSentToday != 8 {
		t.Fatalf("counter = %d, want to stay at 8", c.TasksSentToday)
	}
}

func TestEstimateNextTaskViaService(t *testing.T) {
	f := newFixture(t, userConfig(1, 3))
	ctx := context.Background()

	// Quota exhausted: the next slot is tomorrow's window start.
	for i := 0; i < 3; i++ {
		if err := f.counters.MarkSent(ctx, 1, f.clock.now, f.clock.now); err != nil {
			t.Fatalf("MarkSent error: %v", err)
		}
	}

	next, label, err := f.svc.EstimateNextTask(ctx, 1)
	if err != nil {
		t.Fatalf("EstimateNextTask error: %v", err)
	}
	want := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
	if label == "" {
		t.Fatal("expected a countdown label")
	}
}
