package task

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAfter(t *testing.T) {
	f := After(epoch, 100*time.Millisecond)
	if f.Poll(epoch.Add(99 * time.Millisecond)) {
		t.Fatal("expected timer pending before deadline")
	}
	if !f.Poll(epoch.Add(100 * time.Millisecond)) {
		t.Fatal("expected timer done at deadline")
	}
	if !After(epoch, 0).Poll(epoch) {
		t.Fatal("expected zero duration to resolve immediately")
	}
}

func TestPromise(t *testing.T) {
	p := NewPromise()
	if p.Poll(epoch) {
		t.Fatal("expected new promise pending")
	}
	p.Resolve()
	p.Resolve()
	if !p.Poll(epoch) {
		t.Fatal("expected promise done after resolve")
	}
	var nilPromise *Promise
	nilPromise.Resolve()
	if nilPromise.Done() {
		t.Fatal("expected nil promise never done")
	}
}

func TestAllWaitsForSlowest(t *testing.T) {
	f := All(After(epoch, 100*time.Millisecond), After(epoch, 300*time.Millisecond), Resolved())
	if f.Poll(epoch.Add(150 * time.Millisecond)) {
		t.Fatal("expected barrier pending at 150ms")
	}
	if f.Poll(epoch.Add(299 * time.Millisecond)) {
		t.Fatal("expected barrier pending at 299ms")
	}
	if !f.Poll(epoch.Add(300 * time.Millisecond)) {
		t.Fatal("expected barrier done at 300ms")
	}
	if !All().Poll(epoch) {
		t.Fatal("expected empty barrier resolved")
	}
}

func TestAllStopsPollingFinishedInputs(t *testing.T) {
	polls := 0
	counted := FutureFunc(func(time.Time) bool {
		polls++
		return true
	})
	f := All(counted, After(epoch, time.Second))
	f.Poll(epoch)
	f.Poll(epoch)
	f.Poll(epoch.Add(time.Second))
	if polls != 1 {
		t.Fatalf("polls = %d, want 1", polls)
	}
}

func TestThenStartsNextOnCompletionTick(t *testing.T) {
	var startedAt time.Time
	f := Then(After(epoch, 50*time.Millisecond), func(now time.Time) Future {
		startedAt = now
		return After(now, 50*time.Millisecond)
	})
	if f.Poll(epoch.Add(10 * time.Millisecond)) {
		t.Fatal("expected chain pending")
	}
	if f.Poll(epoch.Add(60 * time.Millisecond)) {
		t.Fatal("expected second step pending")
	}
	if !startedAt.Equal(epoch.Add(60 * time.Millisecond)) {
		t.Fatalf("second step started at %v, want %v", startedAt, epoch.Add(60*time.Millisecond))
	}
	if !f.Poll(epoch.Add(110 * time.Millisecond)) {
		t.Fatal("expected chain done at 110ms")
	}
}

func TestSequenceOfResolvedStepsFinishesInOnePoll(t *testing.T) {
	var order []int
	step := func(n int) func(time.Time) Future {
		return func(time.Time) Future {
			order = append(order, n)
			return Resolved()
		}
	}
	f := Sequence(step(1), step(2), step(3))
	if !f.Poll(epoch) {
		t.Fatal("expected sequence done in one poll")
	}
	if len(order) != 3 || order[0] != 1 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestMemo(t *testing.T) {
	polls := 0
	f := Memo(FutureFunc(func(time.Time) bool {
		polls++
		return true
	}))
	f.Poll(epoch)
	f.Poll(epoch)
	if polls != 1 {
		t.Fatalf("polls = %d, want 1", polls)
	}
	if Memo(f) != f {
		t.Fatal("expected memo not to double wrap")
	}
}
