package poll

import (
	"testing"
	"time"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLoopSpacingAndSingleFlight(t *testing.T) {
	l := NewLoop(100 * time.Millisecond)
	if !l.Ready(epoch, false) {
		t.Fatal("expected first poll due immediately")
	}
	l.Begin(epoch)
	if l.Ready(epoch.Add(200*time.Millisecond), false) {
		t.Fatal("expected no second poll while one is in flight")
	}
	l.End()
	if l.Ready(epoch.Add(99*time.Millisecond), false) {
		t.Fatal("expected next poll not due before interval")
	}
	if !l.Ready(epoch.Add(100*time.Millisecond), false) {
		t.Fatal("expected next poll due after interval")
	}
}

func TestLoopSuspended(t *testing.T) {
	l := NewLoop(0)
	if l.Interval() != timeouts.PollInterval {
		t.Fatalf("interval = %v, want %v", l.Interval(), timeouts.PollInterval)
	}
	if l.Ready(epoch, true) {
		t.Fatal("expected no poll while suspended")
	}
	if !l.Ready(epoch, false) {
		t.Fatal("expected poll once resumed")
	}
}
