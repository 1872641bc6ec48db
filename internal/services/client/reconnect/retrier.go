package reconnect

import (
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
)

// Retrier tracks auto-reconnect against the development engine. After a
// transport failure it schedules connect attempts on its backoff until
// one succeeds.
type Retrier struct {
	policy backoff.BackOff
	active bool
	due    time.Time
}

// NewRetrier retries at a constant interval. A non-positive interval uses
// the default.
func NewRetrier(interval time.Duration) *Retrier {
	if interval <= 0 {
		interval = timeouts.RetryConnect
	}
	return NewRetrierWithBackOff(backoff.NewConstantBackOff(interval))
}

// NewRetrierWithBackOff retries on policy. A policy that returns
// backoff.Stop falls back to the default interval; auto-reconnect never
// gives up.
func NewRetrierWithBackOff(policy backoff.BackOff) *Retrier {
	return &Retrier{policy: policy}
}

// Active reports whether auto-reconnect is in progress.
func (r *Retrier) Active() bool {
	return r.active
}

// Fail records a failed connect or poll at now and schedules the next
// attempt.
func (r *Retrier) Fail(now time.Time) {
	if !r.active {
		r.active = true
		r.policy.Reset()
	}
	wait := r.policy.NextBackOff()
	if wait == backoff.Stop || wait < 0 {
		wait = timeouts.RetryConnect
	}
	r.due = now.Add(wait)
}

// Due reports whether an attempt should be issued now. The caller must
// follow with Attempted.
func (r *Retrier) Due(now time.Time) bool {
	return r.active && !r.due.IsZero() && !now.Before(r.due)
}

// Attempted marks the scheduled attempt as issued so it is not repeated
// while in flight.
func (r *Retrier) Attempted() {
	r.due = time.Time{}
}

// Succeeded ends auto-reconnect.
func (r *Retrier) Succeeded() {
	r.active = false
	r.due = time.Time{}
	r.policy.Reset()
}
