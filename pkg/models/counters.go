package models

import "time"

// DayCounters tracks dispatch progress for one user within one calendar day.
// Keyed by (user_id, date) in the scheduling zone. Only the dispatch loop
// mutates it, and only after a confirmed successful delivery.
//
// TasksSentToday never resets on a quota change, only on date rollover, so it
// may legitimately exceed the current MessagesPerDay if the user lowered the
// quota mid-day.
type DayCounters struct {
	TasksSentToday int       `json:"tasks_sent_today"`
	LastTaskTime   time.Time `json:"last_task_time"` // zero if nothing sent yet today
}

// HasSentToday reports whether at least one task went out this day.
func (c DayCounters) HasSentToday() bool {
	return !c.LastTaskTime.IsZero()
}
