package scheduler

import (
	"time"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// ShouldDispatch decides whether a practice task should go out to this user
// right now. Pure: the caller advances the counters, and only after the
// delivery actually succeeded.
//
// The send interval is the window length divided by the daily quota, with no
// lower bound. The display estimator applies a 5-minute floor on top of the
// same division; that asymmetry is deliberate because the evaluator must obey
// the configured quota exactly while the estimator only has to stay plausible
// for the UI.
//
// A non-nil error means the settings are malformed; the user is then simply
// not eligible and the caller logs the defect.
func ShouldDispatch(cfg *models.UserScheduleConfig, c models.DayCounters, now time.Time) (bool, error) {
	w, err := parseWindow(cfg.StartTime, cfg.EndTime, cfg.MessagesPerDay)
	if err != nil {
		return false, err
	}

	if !w.contains(minutesOfDay(now)) {
		return false, nil
	}

	if c.TasksSentToday >= cfg.MessagesPerDay {
		return false, nil
	}

	// First task of the day goes out as soon as the window opens.
	if !c.HasSentToday() {
		return true, nil
	}

	interval := w.minutes() / cfg.MessagesPerDay
	elapsed := int(now.Sub(c.LastTaskTime).Minutes())
	return elapsed >= interval, nil
}
