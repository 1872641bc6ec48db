package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

const (
	meterName = "github.com/louisbranch/dreamtides/internal/services/client/poll"

	// completionMetric measures submission to applied Final, in
	// milliseconds.
	completionMetric = "dreamtides.client.action.completion"

	// finalizedLimit bounds how many finished request ids are remembered.
	finalizedLimit = 128
)

// Tracker knows which submitted actions the engine has finished. A request
// is complete once the Final response carrying its id has been applied.
type Tracker struct {
	lastSubmitted *uuid.UUID
	lastFinal     *uuid.UUID
	submittedAt   map[uuid.UUID]time.Time
	finalized     map[uuid.UUID]struct{}
	order         []uuid.UUID
	latency       metric.Float64Histogram
}

// NewTracker builds a tracker recording latency through meter. A nil meter
// uses the global provider.
func NewTracker(meter metric.Meter) (*Tracker, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	latency, err := meter.Float64Histogram(completionMetric,
		metric.WithDescription("Time from action submission until its final update was applied."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create completion histogram: %w", err)
	}
	return &Tracker{
		submittedAt: make(map[uuid.UUID]time.Time),
		finalized:   make(map[uuid.UUID]struct{}),
		latency:     latency,
	}, nil
}

// Submitted records that an action with requestID was sent at now.
func (t *Tracker) Submitted(requestID uuid.UUID, now time.Time) {
	id := requestID
	t.lastSubmitted = &id
	t.submittedAt[requestID] = now
}

// Finalized records that the Final update for requestID has been applied.
// A nil id means the engine finished a job it did not attribute.
func (t *Tracker) Finalized(ctx context.Context, requestID *uuid.UUID, now time.Time) {
	if requestID == nil {
		return
	}
	id := *requestID
	t.lastFinal = &id
	if submitted, ok := t.submittedAt[id]; ok {
		delete(t.submittedAt, id)
		t.latency.Record(ctx, float64(now.Sub(submitted))/float64(time.Millisecond))
	}
	if _, seen := t.finalized[id]; seen {
		return
	}
	t.finalized[id] = struct{}{}
	t.order = append(t.order, id)
	if len(t.order) > finalizedLimit {
		delete(t.finalized, t.order[0])
		t.order = t.order[1:]
	}
}

// IsComplete reports whether the Final update for requestID was applied.
func (t *Tracker) IsComplete(requestID uuid.UUID) bool {
	_, ok := t.finalized[requestID]
	return ok
}

// Settled reports whether the most recently submitted action is complete.
// With nothing submitted it is trivially settled.
func (t *Tracker) Settled() bool {
	if t.lastSubmitted == nil {
		return true
	}
	return t.IsComplete(*t.lastSubmitted)
}

// LastSubmitted returns the id of the most recent submission.
func (t *Tracker) LastSubmitted() *uuid.UUID {
	return t.lastSubmitted
}

// LastFinal returns the id carried by the most recently applied Final.
func (t *Tracker) LastFinal() *uuid.UUID {
	return t.lastFinal
}

// Wait returns a future that finishes once requestID is complete.
func (t *Tracker) Wait(requestID uuid.UUID) task.Future {
	return task.Memo(task.FutureFunc(func(time.Time) bool {
		return t.IsComplete(requestID)
	}))
}
