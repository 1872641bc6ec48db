package transport

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/storage"
)

// Recording decorates a Transport, persisting one exchange record per
// call. Failing to record is logged and never fails the call.
type Recording struct {
	next  Transport
	store storage.ExchangeStore
	now   func() time.Time
	logf  func(string, ...any)
}

// NewRecording wraps next. With a nil store it returns next unchanged.
func NewRecording(next Transport, store storage.ExchangeStore, logf func(string, ...any)) Transport {
	if store == nil {
		return next
	}
	if logf == nil {
		logf = log.Printf
	}
	return &Recording{next: next, store: store, now: time.Now, logf: logf}
}

// Mode implements Transport.
func (r *Recording) Mode() Mode { return r.next.Mode() }

// Connect implements Transport.
func (r *Recording) Connect(ctx context.Context, req protocol.ConnectRequest) (protocol.ConnectResponse, error) {
	start := r.now()
	resp, err := r.next.Connect(ctx, req)
	r.record(ctx, OpConnect, req.Metadata.RequestID, start, err)
	return resp, err
}

// PerformAction implements Transport.
func (r *Recording) PerformAction(ctx context.Context, req protocol.PerformActionRequest) (protocol.PerformActionResponse, error) {
	start := r.now()
	resp, err := r.next.PerformAction(ctx, req)
	r.record(ctx, OpPerformAction, req.Metadata.RequestID, start, err)
	return resp, err
}

// Poll implements Transport. Empty polls are not recorded.
func (r *Recording) Poll(ctx context.Context, req protocol.PollRequest) (protocol.PollResponse, error) {
	start := r.now()
	resp, err := r.next.Poll(ctx, req)
	if err == nil && resp.ResponseType == protocol.PollNone {
		return resp, nil
	}
	r.record(ctx, OpPoll, resp.Metadata.RequestID, start, err)
	return resp, err
}

// Log implements Transport. Log calls are not recorded.
func (r *Recording) Log(ctx context.Context, req protocol.ClientLogRequest) error {
	return r.next.Log(ctx, req)
}

func (r *Recording) record(ctx context.Context, op Operation, requestID *uuid.UUID, start time.Time, callErr error) {
	exchange := storage.Exchange{
		Kind:          string(op),
		Transport:     string(r.next.Mode()),
		Outcome:       Outcome(callErr),
		LatencyMillis: r.now().Sub(start).Milliseconds(),
		CreatedAt:     start.UTC(),
	}
	if requestID != nil {
		exchange.RequestID = requestID.String()
	}
	if callErr != nil {
		exchange.LastError = callErr.Error()
	}
	if err := r.store.RecordExchange(context.WithoutCancel(ctx), exchange); err != nil {
		r.logf("record %s exchange: %v", op, err)
	}
}

var _ Transport = (*Recording)(nil)
