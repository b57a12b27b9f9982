package scheduler

import "time"

// Clock abstracts the current time so the service can be tested with a fixed
// or stepped clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
