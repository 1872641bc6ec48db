// Package enginefake provides a scripted rules engine for tests. The same
// engine serves in-process calls and loopback HTTP.
package enginefake

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/platform/id"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

// ErrUnavailable is returned for calls scripted to fail.
var ErrUnavailable = errors.New("engine unavailable")

// Script is the engine's reaction to one action: an immediate response,
// then Incremental poll responses, then a Final one, all echoing the
// action's request id.
type Script struct {
	Immediate   protocol.CommandSequence
	Incremental []protocol.CommandSequence
	Final       protocol.CommandSequence
}

// Engine is a scripted engine. The zero value is not usable; call New.
type Engine struct {
	mu sync.Mutex

	BattleID        uuid.UUID
	ConnectCommands protocol.CommandSequence
	// OnAction scripts the reaction to each action. Nil answers with empty
	// immediate and final sequences.
	OnAction func(req protocol.PerformActionRequest) Script

	Connects []protocol.ConnectRequest
	Actions  []protocol.PerformActionRequest
	Polls    []protocol.PollRequest
	Logs     []protocol.ClientLogRequest
	Versions []uuid.UUID

	pending  []protocol.PollResponse
	failures map[string]int
	newID    id.Generator
}

// New returns an engine with a deterministic battle id.
func New() *Engine {
	newID := id.Sequence("enginefake")
	return &Engine{
		BattleID: newID(),
		failures: make(map[string]int),
		newID:    newID,
	}
}

// FailNext makes the next n calls of op ("connect", "perform_action",
// "poll", "log") fail.
func (e *Engine) FailNext(op string, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[op] += n
}

// Push queues a poll response as if a job produced it.
func (e *Engine) Push(resp protocol.PollResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, resp)
}

// PendingPolls returns how many poll responses are queued.
func (e *Engine) PendingPolls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Counts returns the number of calls received per operation.
func (e *Engine) Counts() (connects, actions, polls, logs int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Connects), len(e.Actions), len(e.Polls), len(e.Logs)
}

// Connect implements the in-process entry point.
func (e *Engine) Connect(request []byte) ([]byte, error) {
	var req protocol.ConnectRequest
	if err := json.Unmarshal(request, &req); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Connects = append(e.Connects, req)
	if e.fail("connect") {
		return nil, ErrUnavailable
	}
	return json.Marshal(protocol.ConnectResponse{
		Metadata:        e.reply(req.Metadata),
		Commands:        e.ConnectCommands,
		ResponseVersion: e.version(),
	})
}

// PerformAction implements the in-process entry point.
func (e *Engine) PerformAction(request []byte) ([]byte, error) {
	var req protocol.PerformActionRequest
	if err := json.Unmarshal(request, &req); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Actions = append(e.Actions, req)
	if e.fail("perform_action") {
		return nil, ErrUnavailable
	}

	script := Script{}
	if e.OnAction != nil {
		e.mu.Unlock()
		script = e.OnAction(req)
		e.mu.Lock()
	}
	meta := e.reply(req.Metadata)
	for _, seq := range script.Incremental {
		seq := seq
		e.pending = append(e.pending, protocol.PollResponse{
			Metadata: meta, Commands: &seq, ResponseType: protocol.PollIncremental,
		})
	}
	final := script.Final
	e.pending = append(e.pending, protocol.PollResponse{
		Metadata: meta, Commands: &final, ResponseType: protocol.PollFinal,
	})
	return json.Marshal(protocol.PerformActionResponse{Metadata: meta, Commands: script.Immediate})
}

// Poll implements the in-process entry point.
func (e *Engine) Poll(request []byte) ([]byte, error) {
	var req protocol.PollRequest
	if err := json.Unmarshal(request, &req); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Polls = append(e.Polls, req)
	if e.fail("poll") {
		return nil, ErrUnavailable
	}
	if len(e.pending) == 0 {
		return json.Marshal(protocol.PollResponse{Metadata: e.reply(req.Metadata), ResponseType: protocol.PollNone})
	}
	resp := e.pending[0]
	e.pending = e.pending[1:]
	resp.ResponseVersion = e.version()
	return json.Marshal(resp)
}

// Log implements the in-process entry point.
func (e *Engine) Log(request []byte) ([]byte, error) {
	var req protocol.ClientLogRequest
	if err := json.Unmarshal(request, &req); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Logs = append(e.Logs, req)
	if e.fail("log") {
		return nil, ErrUnavailable
	}
	return json.Marshal(protocol.ClientLogResponse{})
}

// Handler serves the engine over the loopback HTTP endpoints.
func (e *Engine) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /connect", e.serve(e.Connect))
	mux.HandleFunc("GET /poll", e.serve(e.Poll))
	mux.HandleFunc("POST /perform_action", e.serve(e.PerformAction))
	mux.HandleFunc("POST /log", e.serve(e.Log))
	return mux
}

func (e *Engine) serve(entry func([]byte) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := entry(body)
		if errors.Is(err, ErrUnavailable) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
	}
}

func (e *Engine) fail(op string) bool {
	if e.failures[op] == 0 {
		return false
	}
	e.failures[op]--
	return true
}

func (e *Engine) reply(meta protocol.Metadata) protocol.Metadata {
	battle := e.BattleID
	meta.BattleID = &battle
	return meta
}

func (e *Engine) version() *uuid.UUID {
	v := e.newID()
	e.Versions = append(e.Versions, v)
	return &v
}
