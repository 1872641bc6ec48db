// Package sequencer serializes the application of command sequences. At
// most one sequence is applied at a time; sequences submitted meanwhile
// wait in arrival order and each one starts only after its predecessor has
// completely finished.
package sequencer

import (
	"time"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

// Applier turns a sequence into a running future.
type Applier interface {
	Apply(seq protocol.CommandSequence, animate bool, now time.Time) task.Future
}

// Batch is one submission.
type Batch struct {
	Sequence protocol.CommandSequence
	Animate  bool
	// OnComplete runs once the sequence has finished. It may submit more
	// batches; they queue behind anything already pending.
	OnComplete func(now time.Time)
}

// Sequencer is the single-flight queue. It is not safe for concurrent use;
// all calls happen on the tick loop.
type Sequencer struct {
	applier    Applier
	applying   bool
	current    task.Future
	onComplete func(now time.Time)
	queue      []Batch
	connected  bool
	draining   bool
}

// New builds a sequencer that applies through applier.
func New(applier Applier) *Sequencer {
	return &Sequencer{applier: applier}
}

// Submit applies b now when idle, otherwise appends it to the queue.
func (s *Sequencer) Submit(b Batch, now time.Time) {
	if s.applying {
		s.queue = append(s.queue, b)
		return
	}
	s.begin(b, now)
	s.drain(now)
}

// Tick advances the running sequence and starts queued ones as their
// predecessors finish.
func (s *Sequencer) Tick(now time.Time) {
	s.drain(now)
}

// Busy reports whether a sequence is being applied.
func (s *Sequencer) Busy() bool {
	return s.applying
}

// Pending returns the number of queued batches, excluding the running one.
func (s *Sequencer) Pending() int {
	return len(s.queue)
}

// Connected reports whether any submission has completed.
func (s *Sequencer) Connected() bool {
	return s.connected
}

func (s *Sequencer) begin(b Batch, now time.Time) {
	s.applying = true
	s.onComplete = b.OnComplete
	s.current = s.applier.Apply(b.Sequence, b.Animate, now)
	if s.current == nil {
		s.current = task.Resolved()
	}
}

// drain completes finished sequences and starts the next queued one until
// the running sequence is still in progress or the queue is empty.
// Completion callbacks that submit re-enter Submit while applying is still
// true, so their batches queue instead of recursing.
func (s *Sequencer) drain(now time.Time) {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for s.applying && s.current.Poll(now) {
		s.connected = true
		if s.onComplete != nil {
			s.onComplete(now)
		}
		s.applying = false
		s.current = nil
		s.onComplete = nil
		if len(s.queue) == 0 {
			return
		}
		next := s.queue[0]
		s.queue[0] = Batch{}
		s.queue = s.queue[1:]
		s.begin(next, now)
	}
}
