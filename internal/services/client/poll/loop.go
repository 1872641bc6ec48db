// Package poll schedules engine polls and tracks when submitted actions
// have been fully applied.
package poll

import (
	"time"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
)

// Loop decides when the next poll request goes out. At most one poll is in
// flight; the next one is due one interval after the previous one started.
type Loop struct {
	interval time.Duration
	due      time.Time
	inFlight bool
}

// NewLoop builds a loop. A non-positive interval uses the default.
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = timeouts.PollInterval
	}
	return &Loop{interval: interval}
}

// Interval returns the configured spacing.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Ready reports whether a poll should be issued now. Polling is held while
// suspended, which the runtime sets during auto-reconnect.
func (l *Loop) Ready(now time.Time, suspended bool) bool {
	if suspended || l.inFlight {
		return false
	}
	return !now.Before(l.due)
}

// Begin marks a poll as issued at now.
func (l *Loop) Begin(now time.Time) {
	l.inFlight = true
	l.due = now.Add(l.interval)
}

// End marks the in-flight poll as answered or failed.
func (l *Loop) End() {
	l.inFlight = false
}

// InFlight reports whether a poll awaits its answer.
func (l *Loop) InFlight() bool {
	return l.inFlight
}
