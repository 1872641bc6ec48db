// Package app runs the client: it owns the tick loop, issues engine calls
// through the transport, and feeds responses to the sequencer in arrival
// order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
	"github.com/louisbranch/dreamtides/internal/services/client/poll"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/reconnect"
	"github.com/louisbranch/dreamtides/internal/services/client/sequencer"
	"github.com/louisbranch/dreamtides/internal/services/client/session"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
	"github.com/louisbranch/dreamtides/internal/services/client/transport"
)

// inboxSize bounds completions waiting for the loop.
const inboxSize = 64

// Config wires a Client.
type Config struct {
	Transport transport.Transport
	Session   *session.State
	Applier   sequencer.Applier

	PollInterval  time.Duration
	IdleThreshold time.Duration
	RetryInterval time.Duration

	// PointerPressed reports whether the user is holding the pointer down.
	// It counts as activity for idle reconnect. Nil means never pressed.
	PointerPressed func() bool

	Meter metric.Meter
	Now   func() time.Time
	Logf  func(string, ...any)
}

// Client is the runtime. Everything except Post and Close must be called
// from the loop goroutine.
type Client struct {
	transport transport.Transport
	session   *session.State
	sequencer *sequencer.Sequencer
	loop      *poll.Loop
	tracker   *poll.Tracker
	monitor   *reconnect.Monitor
	retrier   *reconnect.Retrier
	pointer   func() bool
	now       func() time.Time
	logf      func(string, ...any)

	inbox     chan completion
	done      chan struct{}
	closeOnce sync.Once
	inflight  errgroup.Group

	established  bool
	connecting   bool
	pending      int
	lastActionAt time.Time
}

// New validates cfg and builds a client. Nothing is sent until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if cfg.Session == nil {
		return nil, errors.New("session is required")
	}
	if cfg.Applier == nil {
		return nil, errors.New("applier is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.PointerPressed == nil {
		cfg.PointerPressed = func() bool { return false }
	}
	tracker, err := poll.NewTracker(cfg.Meter)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport: cfg.Transport,
		session:   cfg.Session,
		sequencer: sequencer.New(cfg.Applier),
		loop:      poll.NewLoop(cfg.PollInterval),
		tracker:   tracker,
		monitor:   reconnect.NewMonitor(cfg.IdleThreshold, cfg.Now()),
		retrier:   reconnect.NewRetrier(cfg.RetryInterval),
		pointer:   cfg.PointerPressed,
		now:       cfg.Now,
		logf:      cfg.Logf,
		inbox:     make(chan completion, inboxSize),
		done:      make(chan struct{}),
	}, nil
}

// Connect sends the startup connect. Its commands are applied without
// animation.
func (c *Client) Connect(ctx context.Context) {
	c.connect(ctx, false)
}

// PerformAction submits action. It returns the request id that completion
// tracking is keyed by, or false when the session is not connected yet.
func (c *Client) PerformAction(ctx context.Context, action protocol.GameAction) (uuid.UUID, bool) {
	req, ok := c.session.BuildPerformAction(action)
	if !ok {
		c.logf("perform action before connect, dropped")
		return uuid.Nil, false
	}
	requestID := *req.Metadata.RequestID
	now := c.now()
	c.lastActionAt = now
	c.tracker.Submitted(requestID, now)

	c.exchange(ctx, func(ctx context.Context) func(time.Time) {
		resp, err := c.transport.PerformAction(ctx, req)
		return func(now time.Time) {
			if err != nil {
				c.logf("perform action %s: %v", requestID, err)
				return
			}
			c.session.ObservePerformAction(resp)
			c.sequencer.Submit(sequencer.Batch{Sequence: resp.Commands, Animate: true}, now)
		}
	})
	return requestID, true
}

// Log forwards entry to the engine log. Failures are ignored.
func (c *Client) Log(ctx context.Context, entry protocol.ClientLogEntry) {
	req, ok := c.session.BuildLog(entry)
	if !ok {
		return
	}
	c.exchange(ctx, func(ctx context.Context) func(time.Time) {
		_ = c.transport.Log(ctx, req)
		return func(time.Time) {}
	})
}

// Tick runs one loop iteration: deliver completed calls, advance the
// running sequence, then decide on reconnects and polls.
func (c *Client) Tick(ctx context.Context) {
	c.drain()
	now := c.now()
	c.sequencer.Tick(now)

	idle := c.monitor.Tick(now, reconnect.Signals{
		Applying:       c.sequencer.Busy(),
		PointerPressed: c.pointer(),
		LastActionAt:   c.lastActionAt,
	})
	switch {
	case c.retrier.Due(now) && !c.connecting:
		c.retrier.Attempted()
		c.logf("engine unreachable, reconnecting")
		c.connect(ctx, false)
	case idle && c.established && !c.connecting && !c.retrier.Active():
		c.logf("idle for %s, reconnecting", c.monitor.Threshold())
		c.connect(ctx, false)
	}

	if c.established && c.loop.Ready(now, c.retrier.Active()) {
		c.poll(ctx, now)
	}
}

// Run ticks every interval until ctx ends or until reports true after a
// tick. Completions are delivered as soon as they arrive.
func (c *Client) Run(ctx context.Context, interval time.Duration, until func() bool) error {
	if interval <= 0 {
		interval = timeouts.Tick
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case done := <-c.inbox:
			c.complete(done)
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			c.Tick(ctx)
			if until != nil && until() {
				return nil
			}
		}
	}
}

// Post schedules fn on the loop. It reports false once the client is
// closed.
func (c *Client) Post(fn func(now time.Time)) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.inbox <- completion{run: fn}:
		return true
	case <-c.done:
		return false
	}
}

// Close stops accepting completions and waits for in-flight calls, bounded
// by ctx.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() { close(c.done) })
	waited := make(chan error, 1)
	go func() { waited <- c.inflight.Wait() }()
	select {
	case err := <-waited:
		return err
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight engine calls: %w", ctx.Err())
	}
}

// Wait returns a future that finishes once the Final update for requestID
// has been applied.
func (c *Client) Wait(requestID uuid.UUID) task.Future {
	return c.tracker.Wait(requestID)
}

// Settled reports whether the last submitted action is complete.
func (c *Client) Settled() bool {
	return c.tracker.Settled()
}

// Connected reports whether any response has been fully applied.
func (c *Client) Connected() bool {
	return c.sequencer.Connected()
}

// Idle reports whether nothing is in flight, applying or queued, and the
// last action is complete.
func (c *Client) Idle() bool {
	return c.pending == 0 && !c.sequencer.Busy() && c.sequencer.Pending() == 0 && c.tracker.Settled()
}

// Reconnecting reports whether auto-reconnect is active.
func (c *Client) Reconnecting() bool {
	return c.retrier.Active()
}

func (c *Client) connect(ctx context.Context, animate bool) {
	req := c.session.BuildConnect()
	c.connecting = true
	c.monitor.Fired(c.now())
	c.exchange(ctx, func(ctx context.Context) func(time.Time) {
		resp, err := c.transport.Connect(ctx, req)
		return func(now time.Time) {
			c.connecting = false
			if err != nil {
				c.fail(ctx, transport.OpConnect, err, now)
				return
			}
			c.retrier.Succeeded()
			c.established = true
			c.session.ObserveConnect(resp)
			c.sequencer.Submit(sequencer.Batch{Sequence: resp.Commands, Animate: animate}, now)
		}
	})
}

func (c *Client) poll(ctx context.Context, now time.Time) {
	req, ok := c.session.BuildPoll()
	if !ok {
		return
	}
	c.loop.Begin(now)
	c.exchange(ctx, func(ctx context.Context) func(time.Time) {
		resp, err := c.transport.Poll(ctx, req)
		return func(now time.Time) {
			c.loop.End()
			if err != nil {
				c.fail(ctx, transport.OpPoll, err, now)
				return
			}
			c.receive(ctx, resp, now)
		}
	})
}

// receive routes a poll response. A Final response is queued even when it
// carries no commands so that its completion is recorded only after every
// earlier batch has been applied.
func (c *Client) receive(ctx context.Context, resp protocol.PollResponse, now time.Time) {
	c.session.ObservePoll(resp)
	switch resp.ResponseType {
	case protocol.PollNone:
	case protocol.PollIncremental:
		if resp.Commands != nil && !resp.Commands.Empty() {
			c.sequencer.Submit(sequencer.Batch{Sequence: *resp.Commands, Animate: true}, now)
		}
	case protocol.PollFinal:
		var seq protocol.CommandSequence
		if resp.Commands != nil {
			seq = *resp.Commands
		}
		requestID := resp.Metadata.RequestID
		c.sequencer.Submit(sequencer.Batch{
			Sequence: seq,
			Animate:  true,
			OnComplete: func(now time.Time) {
				c.tracker.Finalized(ctx, requestID, now)
			},
		}, now)
	default:
		c.logf("poll: unknown response type %q, dropped", resp.ResponseType)
	}
}

// fail applies the failure policy for connect and poll. Calls cut short
// by the caller's context are shutdown, not engine failures.
func (c *Client) fail(ctx context.Context, op transport.Operation, err error, now time.Time) {
	switch {
	case ctx.Err() != nil:
		c.logf("engine %s abandoned: %v", op, ctx.Err())
	case transport.IsTransportFailure(err) && c.transport.Mode() == transport.ModeInProcess:
		panic(fmt.Sprintf("in-process engine %s failed: %v", op, err))
	case transport.IsTransportFailure(err):
		c.logf("engine %s failed, retrying: %v", op, err)
		c.retrier.Fail(now)
	default:
		c.logf("engine %s response dropped: %v", op, err)
	}
}

// exchange runs call against the transport. In-process calls complete
// inline; loopback calls run on a tracked goroutine and complete on the
// loop.
func (c *Client) exchange(ctx context.Context, call func(context.Context) func(time.Time)) {
	c.pending++
	if c.transport.Mode() == transport.ModeInProcess {
		c.complete(completion{run: call(ctx), exchange: true})
		return
	}
	c.inflight.Go(func() error {
		done := completion{run: call(ctx), exchange: true}
		select {
		case c.inbox <- done:
		case <-c.done:
		}
		return nil
	})
}

// completion is work handed to the loop: the tail of an engine call or a
// posted function.
type completion struct {
	run      func(now time.Time)
	exchange bool
}

func (c *Client) complete(done completion) {
	if done.exchange && c.pending > 0 {
		c.pending--
	}
	done.run(c.now())
}

func (c *Client) drain() {
	for {
		select {
		case done := <-c.inbox:
			c.complete(done)
		default:
			return
		}
	}
}
