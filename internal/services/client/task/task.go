// Package task provides futures that are advanced by polling from a single
// loop. A future is polled at most once per tick with the tick time and
// reports whether it has finished. Once finished it stays finished.
package task

import "time"

// Future is a unit of suspendable work.
type Future interface {
	// Poll advances the future and reports whether it is done.
	Poll(now time.Time) bool
}

// FutureFunc adapts a function to Future. The function is polled until it
// returns true and never again afterwards.
type FutureFunc func(now time.Time) bool

// Poll implements Future.
func (f FutureFunc) Poll(now time.Time) bool {
	return f(now)
}

type resolved struct{}

func (resolved) Poll(time.Time) bool { return true }

// Resolved returns a future that is already done.
func Resolved() Future {
	return resolved{}
}

type timer struct {
	deadline time.Time
}

func (t timer) Poll(now time.Time) bool {
	return !now.Before(t.deadline)
}

// After returns a future that finishes once d has elapsed since start.
// A non-positive d finishes immediately.
func After(start time.Time, d time.Duration) Future {
	if d <= 0 {
		return Resolved()
	}
	return timer{deadline: start.Add(d)}
}

// Promise is a future resolved by its owner.
type Promise struct {
	done bool
}

// NewPromise returns an unresolved promise.
func NewPromise() *Promise {
	return &Promise{}
}

// Resolve marks the promise done. Resolving twice is harmless.
func (p *Promise) Resolve() {
	if p == nil {
		return
	}
	p.done = true
}

// Done reports whether Resolve was called.
func (p *Promise) Done() bool {
	return p != nil && p.done
}

// Poll implements Future.
func (p *Promise) Poll(time.Time) bool {
	return p.Done()
}

type all struct {
	pending []Future
}

// All returns a future that finishes when every input has. Inputs are
// polled on every tick until they finish. With no inputs it is resolved.
func All(futures ...Future) Future {
	pending := make([]Future, 0, len(futures))
	for _, f := range futures {
		if f != nil {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return Resolved()
	}
	return &all{pending: pending}
}

func (a *all) Poll(now time.Time) bool {
	remaining := a.pending[:0]
	for _, f := range a.pending {
		if !f.Poll(now) {
			remaining = append(remaining, f)
		}
	}
	a.pending = remaining
	return len(a.pending) == 0
}

type then struct {
	first  Future
	next   func(now time.Time) Future
	second Future
}

// Then runs first and, once it finishes, starts the future returned by
// next. The second future is polled in the same tick it is started, so a
// chain of immediately finished steps completes in one poll.
func Then(first Future, next func(now time.Time) Future) Future {
	if first == nil {
		first = Resolved()
	}
	return &then{first: first, next: next}
}

func (t *then) Poll(now time.Time) bool {
	if t.second == nil {
		if !t.first.Poll(now) {
			return false
		}
		t.second = Resolved()
		if t.next != nil {
			if next := t.next(now); next != nil {
				t.second = next
			}
		}
	}
	return t.second.Poll(now)
}

// Sequence starts each step after the previous one finishes.
func Sequence(steps ...func(now time.Time) Future) Future {
	var chain Future = Resolved()
	for _, step := range steps {
		chain = Then(chain, step)
	}
	return chain
}

// Memo wraps f so that once it reports done it is never polled again.
func Memo(f Future) Future {
	if f == nil {
		return Resolved()
	}
	if m, ok := f.(*memo); ok {
		return m
	}
	return &memo{inner: f}
}

type memo struct {
	inner Future
	done  bool
}

func (m *memo) Poll(now time.Time) bool {
	if !m.done {
		m.done = m.inner.Poll(now)
	}
	return m.done
}
