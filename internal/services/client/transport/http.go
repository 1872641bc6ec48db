package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

// Loopback endpoint paths.
const (
	PathConnect       = "/connect"
	PathPoll          = "/poll"
	PathPerformAction = "/perform_action"
	PathLog           = "/log"
)

// maxResponseBytes bounds a single engine response body.
const maxResponseBytes = 32 << 20

// HTTP calls a development engine over loopback HTTP.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP builds a loopback transport for baseURL. A nil client uses one
// with the engine request timeout.
func NewHTTP(baseURL string, client *http.Client) (*HTTP, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("engine base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse engine base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("engine base url scheme %q is not http", parsed.Scheme)
	}
	if client == nil {
		client = &http.Client{Timeout: timeouts.EngineRequest}
	}
	return &HTTP{baseURL: baseURL, client: client}, nil
}

// Mode implements Transport.
func (t *HTTP) Mode() Mode { return ModeLoopback }

// Connect implements Transport.
func (t *HTTP) Connect(ctx context.Context, req protocol.ConnectRequest) (protocol.ConnectResponse, error) {
	var resp protocol.ConnectResponse
	err := t.do(ctx, OpConnect, http.MethodGet, PathConnect, req.Metadata.RequestID, req, &resp)
	return resp, err
}

// PerformAction implements Transport.
func (t *HTTP) PerformAction(ctx context.Context, req protocol.PerformActionRequest) (protocol.PerformActionResponse, error) {
	var resp protocol.PerformActionResponse
	err := t.do(ctx, OpPerformAction, http.MethodPost, PathPerformAction, req.Metadata.RequestID, req, &resp)
	return resp, err
}

// Poll implements Transport. The request travels as a GET body, which the
// development engine expects.
func (t *HTTP) Poll(ctx context.Context, req protocol.PollRequest) (protocol.PollResponse, error) {
	var resp protocol.PollResponse
	err := t.do(ctx, OpPoll, http.MethodGet, PathPoll, nil, req, &resp)
	return resp, err
}

// Log implements Transport.
func (t *HTTP) Log(ctx context.Context, req protocol.ClientLogRequest) error {
	return t.do(ctx, OpLog, http.MethodPost, PathLog, nil, req, nil)
}

func (t *HTTP) do(ctx context.Context, op Operation, method, path string, requestID *uuid.UUID, in any, out any) (err error) {
	ctx, span := startSpan(ctx, ModeLoopback, op, requestID)
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(in)
	if err != nil {
		return encodeError(op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return encodeError(op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return transportError(op, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxResponseBytes))
		return transportError(op, fmt.Errorf("engine returned %s", httpResp.Status))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxResponseBytes))
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return transportError(op, fmt.Errorf("read body: %w", err))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

var _ Transport = (*HTTP)(nil)
