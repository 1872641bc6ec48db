package transport

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

// Engine is an engine linked into this process. Each entry point takes a
// JSON request and returns a JSON response.
type Engine interface {
	Connect(request []byte) ([]byte, error)
	PerformAction(request []byte) ([]byte, error)
	Poll(request []byte) ([]byte, error)
	Log(request []byte) ([]byte, error)
}

// InProcess calls an Engine directly.
type InProcess struct {
	engine Engine
}

// NewInProcess wraps engine.
func NewInProcess(engine Engine) (*InProcess, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	return &InProcess{engine: engine}, nil
}

// Mode implements Transport.
func (t *InProcess) Mode() Mode { return ModeInProcess }

// Connect implements Transport.
func (t *InProcess) Connect(ctx context.Context, req protocol.ConnectRequest) (protocol.ConnectResponse, error) {
	var resp protocol.ConnectResponse
	err := t.call(ctx, OpConnect, req.Metadata.RequestID, t.engine.Connect, req, &resp)
	return resp, err
}

// PerformAction implements Transport.
func (t *InProcess) PerformAction(ctx context.Context, req protocol.PerformActionRequest) (protocol.PerformActionResponse, error) {
	var resp protocol.PerformActionResponse
	err := t.call(ctx, OpPerformAction, req.Metadata.RequestID, t.engine.PerformAction, req, &resp)
	return resp, err
}

// Poll implements Transport.
func (t *InProcess) Poll(ctx context.Context, req protocol.PollRequest) (protocol.PollResponse, error) {
	var resp protocol.PollResponse
	err := t.call(ctx, OpPoll, nil, t.engine.Poll, req, &resp)
	return resp, err
}

// Log implements Transport.
func (t *InProcess) Log(ctx context.Context, req protocol.ClientLogRequest) error {
	var resp protocol.ClientLogResponse
	return t.call(ctx, OpLog, nil, t.engine.Log, req, &resp)
}

func (t *InProcess) call(ctx context.Context, op Operation, requestID *uuid.UUID, entry func([]byte) ([]byte, error), req any, resp any) (err error) {
	_, span := startSpan(ctx, ModeInProcess, op, requestID)
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return transportError(op, err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return encodeError(op, err)
	}
	out, err := entry(body)
	if err != nil {
		return transportError(op, err)
	}
	if err := json.Unmarshal(out, resp); err != nil {
		return decodeError(op, err)
	}
	return nil
}

var _ Transport = (*InProcess)(nil)
