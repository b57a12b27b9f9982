package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseClock parses a wall-clock "HH:MM" string into minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// minutesOfDay returns the wall-clock minutes since midnight of t.
func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// window is a validated daily send window.
type window struct {
	startM, endM int
}

// parseWindow validates the schedule settings the evaluator and estimator
// share. Overnight windows (end before start) are not supported and are
// treated as a configuration defect.
func parseWindow(startTime, endTime string, messagesPerDay int) (window, error) {
	startM, err := parseClock(startTime)
	if err != nil {
		return window{}, fmt.Errorf("bad start_time: %w", err)
	}
	endM, err := parseClock(endTime)
	if err != nil {
		return window{}, fmt.Errorf("bad end_time: %w", err)
	}
	if endM < startM {
		return window{}, fmt.Errorf("window end %s before start %s", endTime, startTime)
	}
	if messagesPerDay <= 0 {
		return window{}, fmt.Errorf("invalid messages_per_day %d", messagesPerDay)
	}
	return window{startM: startM, endM: endM}, nil
}

// contains reports whether the wall-clock minute m is inside the window,
// boundaries included.
func (w window) contains(m int) bool {
	return m >= w.startM && m <= w.endM
}

// minutes returns the window length in minutes.
func (w window) minutes() int {
	return w.endM - w.startM
}

// startToday returns the window start on now's calendar day.
func (w window) startToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), w.startM/60, w.startM%60, 0, 0, now.Location())
}

// endToday returns the window end on now's calendar day.
func (w window) endToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), w.endM/60, w.endM%60, 0, 0, now.Location())
}
