// Package reconnect decides when the client re-establishes its session:
// after a long idle period, and repeatedly after the development engine
// becomes unreachable.
package reconnect

import (
	"time"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
)

// Signals is what the monitor observes each tick.
type Signals struct {
	// Applying is true while the sequencer is applying a sequence.
	Applying bool
	// PointerPressed is true while the user holds the pointer down.
	PointerPressed bool
	// LastActionAt is when the user last submitted an action.
	LastActionAt time.Time
}

// Monitor fires a reconnect after the client has been idle longer than the
// threshold, and never twice within one threshold.
type Monitor struct {
	threshold     time.Duration
	lastActivity  time.Time
	lastReconnect time.Time
}

// NewMonitor starts a monitor at now. A non-positive threshold uses the
// default.
func NewMonitor(threshold time.Duration, now time.Time) *Monitor {
	if threshold <= 0 {
		threshold = timeouts.IdleReconnect
	}
	return &Monitor{threshold: threshold, lastActivity: now, lastReconnect: now}
}

// Threshold returns the idle threshold.
func (m *Monitor) Threshold() time.Duration {
	return m.threshold
}

// Tick observes signals at now and reports whether a reconnect is due. The
// caller must follow with Fired when it actually reconnects.
func (m *Monitor) Tick(now time.Time, s Signals) bool {
	if s.Applying || s.PointerPressed || s.LastActionAt.After(m.lastActivity) {
		m.lastActivity = now
	}
	if now.Sub(m.lastActivity) <= m.threshold {
		return false
	}
	return now.Sub(m.lastReconnect) > m.threshold
}

// Fired records a reconnect issued at now.
func (m *Monitor) Fired(now time.Time) {
	m.lastReconnect = now
}
