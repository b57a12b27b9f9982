package scheduler

import (
	"fmt"
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// estimateFloorMinutes is the minimum interval the display estimator assumes
// between tasks. ShouldDispatch intentionally does not apply this floor; see
// its doc comment.
const estimateFloorMinutes = 5

// EstimateNext predicts when the next task will go out and renders the
// countdown for the UI. Display only: the dispatch loop never consults it.
func EstimateNext(cfg *models.UserScheduleConfig, c models.DayCounters, now time.Time) (time.Time, string, error) {
	w, err := parseWindow(cfg.StartTime, cfg.EndTime, cfg.MessagesPerDay)
	if err != nil {
		return time.Time{}, "", err
	}

	tomorrowStart := w.startToday(now).AddDate(0, 0, 1)

	// Quota used up: nothing more today.
	if c.TasksSentToday >= cfg.MessagesPerDay {
		return tomorrowStart, countdown(tomorrowStart.Sub(now)), nil
	}

	interval := w.minutes() / cfg.MessagesPerDay
	if interval < estimateFloorMinutes {
		interval = estimateFloorMinutes
	}

	if !c.HasSentToday() {
		next := w.startToday(now)
		if minutesOfDay(now) >= w.startM {
			// Already dispatchable; promise a near-term slot.
			next = now.Add(estimateFloorMinutes * time.Minute)
		}
		return next, countdown(next.Sub(now)), nil
	}

	candidate := c.LastTaskTime.Add(time.Duration(interval) * time.Minute)
	if candidate.After(w.endToday(now)) || !candidate.After(now) {
		candidate = tomorrowStart
	}
	return candidate, countdown(candidate.Sub(now)), nil
}

// countdown renders a duration as "2h 15min", dropping the hour part when it
// is zero.
func countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Minutes())
	h := total / 60
	m := total % 60
	if h == 0 {
		return fmt.Sprintf("%dmin", m)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}
