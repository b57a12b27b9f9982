package scheduler

import (
	"testing"
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// at builds a timestamp on a fixed day at the given wall-clock time.
func at(t *testing.T, hh, mm int) time.Time {
	t.Helper()
	return time.Date(2025, time.March, 10, hh, mm, 0, 0, time.UTC)
}

func defaultConfig() *models.UserScheduleConfig {
	return &models.UserScheduleConfig{
		UserID:         1,
		Enabled:        true,
		StartTime:      "09:00",
		EndTime:        "21:00",
		MessagesPerDay: 3,
	}
}

func TestShouldDispatchOutsideWindow(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig()

	for _, tt := range []struct {
		name   string
		hh, mm int
	}{
		{name: "before start", hh: 8, mm: 59},
		{name: "after end", hh: 21, mm: 1},
		{name: "midnight", hh: 0, mm: 0},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ok, err := ShouldDispatch(cfg, models.DayCounters{}, at(t, tt.hh, tt.mm))
			if err != nil {
				t.Fatalf("ShouldDispatch error: %v", err)
			}
			if ok {
				t.Fatalf("expected no dispatch at %02d:%02d", tt.hh, tt.mm)
			}
		})
	}
}

func TestShouldDispatchFirstTaskImmediately(t *testing.T) {
	t.Parallel()
	ok, err := ShouldDispatch(defaultConfig(), models.DayCounters{}, at(t, 9, 0))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if !ok {
		t.Fatal("expected first task to dispatch as soon as the window opens")
	}
}

func TestShouldDispatchIntervalEnforcement(t *testing.T) {
	t.Parallel()
	// window 09:00-21:00, quota 3 → interval 720/3 = 240 minutes
	cfg := defaultConfig()
	counters := models.DayCounters{
		TasksSentToday: 1,
		LastTaskTime:   at(t, 13, 0),
	}

	ok, err := ShouldDispatch(cfg, counters, at(t, 14, 0))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if ok {
		t.Fatal("60 minutes elapsed, expected no dispatch before the 240-minute interval")
	}

	ok, err = ShouldDispatch(cfg, counters, at(t, 17, 0))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if !ok {
		t.Fatal("240 minutes elapsed, expected dispatch")
	}
}

func TestShouldDispatchQuotaExhausted(t *testing.T) {
	t.Parallel()
	counters := models.DayCounters{TasksSentToday: 3, LastTaskTime: at(t, 12, 0)}
	ok, err := ShouldDispatch(defaultConfig(), counters, at(t, 18, 0))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if ok {
		t.Fatal("quota used up, expected no dispatch")
	}
}

func TestShouldDispatchCounterAboveLoweredQuota(t *testing.T) {
	t.Parallel()
	// 8 tasks went out, then the user lowered the quota to 5. The counter
	// keeps its value and the user stays over quota for the rest of the day.
	cfg := defaultConfig()
	cfg.MessagesPerDay = 5
	counters := models.DayCounters{TasksSentToday: 8, LastTaskTime: at(t, 12, 0)}

	ok, err := ShouldDispatch(cfg, counters, at(t, 18, 0))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if ok {
		t.Fatal("counter above quota, expected no dispatch")
	}
}

func TestShouldDispatchNoFloorOnTinyIntervals(t *testing.T) {
	t.Parallel()
	// 90-minute window with quota 30 → 3-minute interval. The evaluator uses
	// it as is; only the estimator applies the 5-minute floor.
	cfg := &models.UserScheduleConfig{
		UserID:         1,
		StartTime:      "09:00",
		EndTime:        "10:30",
		MessagesPerDay: 30,
	}
	counters := models.DayCounters{TasksSentToday: 1, LastTaskTime: at(t, 9, 0)}

	ok, err := ShouldDispatch(cfg, counters, at(t, 9, 3))
	if err != nil {
		t.Fatalf("ShouldDispatch error: %v", err)
	}
	if !ok {
		t.Fatal("3 minutes elapsed with a 3-minute interval, expected dispatch")
	}
}

func TestShouldDispatchMalformedSettings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  models.UserScheduleConfig
	}{
		{name: "garbage start", cfg: models.UserScheduleConfig{StartTime: "morning", EndTime: "21:00", MessagesPerDay: 3}},
		{name: "garbage end", cfg: models.UserScheduleConfig{StartTime: "09:00", EndTime: "25:99", MessagesPerDay: 3}},
		{name: "zero quota", cfg: models.UserScheduleConfig{StartTime: "09:00", EndTime: "21:00", MessagesPerDay: 0}},
		{name: "negative quota", cfg: models.UserScheduleConfig{StartTime: "09:00", EndTime: "21:00", MessagesPerDay: -1}},
		{name: "inverted window", cfg: models.UserScheduleConfig{StartTime: "21:00", EndTime: "09:00", MessagesPerDay: 3}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ok, err := ShouldDispatch(&tt.cfg, models.DayCounters{}, at(t, 12, 0))
			if err == nil {
				t.Fatal("expected an error for malformed settings")
			}
			if ok {
				t.Fatal("malformed settings must fail closed")
			}
		})
	}
}
