package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/platform/id"
	"github.com/louisbranch/dreamtides/internal/services/client/dispatch"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/session"
	"github.com/louisbranch/dreamtides/internal/services/client/transport"
	"github.com/louisbranch/dreamtides/internal/testkit/enginefake"
)

var (
	epoch    = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testUser = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func discard(string, ...any) {}

func newInProcessClient(t *testing.T, engine *enginefake.Engine, clk *clock, idle time.Duration) *Client {
	t.Helper()
	tr, err := transport.NewInProcess(engine)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	c, err := New(Config{
		Transport:     tr,
		Session:       session.New(testUser, session.Environment{}, id.Sequence("app-test")),
		Applier:       dispatch.New(discard),
		PollInterval:  100 * time.Millisecond,
		IdleThreshold: idle,
		Now:           clk.Now,
		Logf:          discard,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Fatalf("err = %v, want transport required", err)
	}
}

func TestPerformActionBeforeConnectIsDropped(t *testing.T) {
	engine := enginefake.New()
	c := newInProcessClient(t, engine, &clock{now: epoch}, time.Hour)

	if _, ok := c.PerformAction(context.Background(), protocol.NoOpAction{}); ok {
		t.Fatal("expected perform action to be dropped before connect")
	}
	if _, actions, _, _ := engine.Counts(); actions != 0 {
		t.Fatalf("actions = %d, want 0", actions)
	}
}

func TestFinalCompletionWaitsForAppliedBatch(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	engine.OnAction = func(protocol.PerformActionRequest) enginefake.Script {
		return enginefake.Script{
			Final: protocol.FromCommand(protocol.WaitCommand{Duration: protocol.Ms(300)}),
		}
	}
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Hour)

	c.Connect(ctx)
	if !c.Connected() {
		t.Fatal("expected connected after startup batch")
	}
	requestID, ok := c.PerformAction(ctx, protocol.NoOpAction{})
	if !ok {
		t.Fatal("expected perform action to be sent")
	}
	wait := c.Wait(requestID)

	c.Tick(ctx)
	if _, _, polls, _ := engine.Counts(); polls != 1 {
		t.Fatalf("polls = %d, want 1", polls)
	}
	if wait.Poll(clk.Now()) || c.Settled() {
		t.Fatal("completion signaled before the final batch was applied")
	}

	clk.Advance(200 * time.Millisecond)
	c.Tick(ctx)
	if wait.Poll(clk.Now()) {
		t.Fatal("completion signaled while the final batch was still running")
	}

	clk.Advance(150 * time.Millisecond)
	c.Tick(ctx)
	if !wait.Poll(clk.Now()) {
		t.Fatal("expected completion after the final batch was applied")
	}
	if !c.Settled() || !c.Idle() {
		t.Fatalf("settled = %v idle = %v, want both true", c.Settled(), c.Idle())
	}
}

func TestIncrementalUpdatesDoNotComplete(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	engine.OnAction = func(protocol.PerformActionRequest) enginefake.Script {
		return enginefake.Script{
			Incremental: []protocol.CommandSequence{
				protocol.FromCommand(protocol.ToggleThinkingIndicatorCommand{Show: true}),
			},
		}
	}
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Hour)
	c.Connect(ctx)
	requestID, _ := c.PerformAction(ctx, protocol.NoOpAction{})

	c.Tick(ctx)
	if c.Settled() {
		t.Fatal("incremental response must not complete the action")
	}
	clk.Advance(100 * time.Millisecond)
	c.Tick(ctx)
	if !c.Wait(requestID).Poll(clk.Now()) {
		t.Fatal("expected completion after final response")
	}
}

func TestResponseVersionRoundTrip(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Hour)

	c.Connect(ctx)
	if got := engine.Connects[0].Metadata.LastResponseVersion; got != nil {
		t.Fatalf("first connect version = %v, want none", got)
	}
	c.PerformAction(ctx, protocol.NoOpAction{})
	first := engine.Actions[0]
	if first.LastResponseVersion == nil || *first.LastResponseVersion != engine.Versions[0] {
		t.Fatalf("action version = %v, want %v", first.LastResponseVersion, engine.Versions[0])
	}
	if first.Metadata.LastResponseVersion == nil || *first.Metadata.LastResponseVersion != engine.Versions[0] {
		t.Fatalf("action metadata version = %v, want %v", first.Metadata.LastResponseVersion, engine.Versions[0])
	}
	if first.Metadata.BattleID == nil || *first.Metadata.BattleID != engine.BattleID {
		t.Fatalf("battle id = %v, want %v", first.Metadata.BattleID, engine.BattleID)
	}

	c.Tick(ctx)
	if len(engine.Versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(engine.Versions))
	}
	c.PerformAction(ctx, protocol.NoOpAction{})
	second := engine.Actions[1]
	if second.LastResponseVersion == nil || *second.LastResponseVersion != engine.Versions[1] {
		t.Fatalf("second action version = %v, want %v", second.LastResponseVersion, engine.Versions[1])
	}
	if *second.Metadata.RequestID == *first.Metadata.RequestID {
		t.Fatal("expected a fresh request id per action")
	}
}

func TestPollWaitsForConnectAndInterval(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Hour)

	c.Tick(ctx)
	if _, _, polls, _ := engine.Counts(); polls != 0 {
		t.Fatalf("polls before connect = %d, want 0", polls)
	}
	c.Connect(ctx)
	c.Tick(ctx)
	clk.Advance(50 * time.Millisecond)
	c.Tick(ctx)
	if _, _, polls, _ := engine.Counts(); polls != 1 {
		t.Fatalf("polls within interval = %d, want 1", polls)
	}
	clk.Advance(50 * time.Millisecond)
	c.Tick(ctx)
	if _, _, polls, _ := engine.Counts(); polls != 2 {
		t.Fatalf("polls after interval = %d, want 2", polls)
	}
}

func TestIdleReconnectIsRateLimited(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Second)
	c.Connect(ctx)

	clk.Advance(500 * time.Millisecond)
	c.Tick(ctx)
	if connects, _, _, _ := engine.Counts(); connects != 1 {
		t.Fatalf("connects before threshold = %d, want 1", connects)
	}

	clk.Advance(time.Second)
	c.Tick(ctx)
	if connects, _, _, _ := engine.Counts(); connects != 2 {
		t.Fatalf("connects after idle threshold = %d, want 2", connects)
	}

	clk.Advance(100 * time.Millisecond)
	c.Tick(ctx)
	if connects, _, _, _ := engine.Counts(); connects != 2 {
		t.Fatalf("connects right after reconnect = %d, want 2", connects)
	}
}

func TestInProcessConnectFailurePanics(t *testing.T) {
	engine := enginefake.New()
	engine.FailNext(string(transport.OpConnect), 1)
	c := newInProcessClient(t, engine, &clock{now: epoch}, time.Hour)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on in-process connect failure")
		}
	}()
	c.Connect(context.Background())
}

func TestLoopbackConnectFailureReconnects(t *testing.T) {
	engine := enginefake.New()
	engine.FailNext("connect", 1)
	srv := httptest.NewServer(engine.Handler())
	defer srv.Close()

	tr, err := transport.NewHTTP(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	c, err := New(Config{
		Transport:     tr,
		Session:       session.New(testUser, session.Environment{}, nil),
		Applier:       dispatch.New(discard),
		PollInterval:  10 * time.Millisecond,
		IdleThreshold: time.Hour,
		RetryInterval: 10 * time.Millisecond,
		Logf:          discard,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Connect(ctx)
	err = c.Run(ctx, 2*time.Millisecond, func() bool {
		_, _, polls, _ := engine.Counts()
		return c.Connected() && polls > 0
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if connects, _, _, _ := engine.Counts(); connects != 2 {
		t.Fatalf("connects = %d, want 2", connects)
	}
	if c.Reconnecting() {
		t.Fatal("expected auto-reconnect to end after a successful connect")
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPostAfterCloseIsRejected(t *testing.T) {
	c := newInProcessClient(t, enginefake.New(), &clock{now: epoch}, time.Hour)

	ran := false
	if !c.Post(func(time.Time) { ran = true }) {
		t.Fatal("expected post to be accepted")
	}
	c.Tick(context.Background())
	if !ran {
		t.Fatal("expected posted function to run on tick")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Post(func(time.Time) {}) {
		t.Fatal("expected post after close to be rejected")
	}
}

func TestTickAfterCancelDoesNotPanic(t *testing.T) {
	engine := enginefake.New()
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	c.Connect(ctx)
	cancel()
	clk.Advance(time.Second)
	c.Tick(ctx)

	if _, _, polls, _ := engine.Counts(); polls != 0 {
		t.Fatalf("polls = %d, want 0 after cancel", polls)
	}
	if c.Reconnecting() {
		t.Fatal("cancelled call must not start auto-reconnect")
	}
}

func TestConnectWithCancelledContextDoesNotPanic(t *testing.T) {
	engine := enginefake.New()
	c := newInProcessClient(t, engine, &clock{now: epoch}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Connect(ctx)
	if c.Connected() {
		t.Fatal("expected no connection with a cancelled context")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	c := newInProcessClient(t, enginefake.New(), &clock{now: epoch}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, time.Millisecond, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("run = %v, want context.Canceled", err)
	}
}

// settle delivers every in-flight loopback call to the loop.
func settle(c *Client) {
	for c.pending > 0 {
		c.complete(<-c.inbox)
	}
}

func TestLoopbackPollFailureSuspendsPollingUntilReconnect(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	srv := httptest.NewServer(engine.Handler())
	defer srv.Close()
	tr, err := transport.NewHTTP(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	clk := &clock{now: epoch}
	c, err := New(Config{
		Transport:     tr,
		Session:       session.New(testUser, session.Environment{}, nil),
		Applier:       dispatch.New(discard),
		PollInterval:  100 * time.Millisecond,
		IdleThreshold: time.Hour,
		RetryInterval: 500 * time.Millisecond,
		Now:           clk.Now,
		Logf:          discard,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close(ctx)

	c.Connect(ctx)
	settle(c)
	engine.FailNext("poll", 1)

	c.Tick(ctx)
	settle(c)
	if !c.Reconnecting() {
		t.Fatal("expected auto-reconnect after poll failure")
	}

	for _, step := range []time.Duration{100, 200, 100} {
		clk.Advance(step * time.Millisecond)
		c.Tick(ctx)
		settle(c)
		if connects, _, polls, _ := engine.Counts(); connects != 1 || polls != 1 {
			t.Fatalf("at %v connects = %d polls = %d, want 1 and 1", clk.Now().Sub(epoch), connects, polls)
		}
	}

	clk.Advance(100 * time.Millisecond)
	c.Tick(ctx)
	settle(c)
	if connects, _, polls, _ := engine.Counts(); connects != 2 || polls != 1 {
		t.Fatalf("after retry connects = %d polls = %d, want 2 and 1", connects, polls)
	}
	if c.Reconnecting() {
		t.Fatal("expected auto-reconnect to end after a successful connect")
	}

	clk.Advance(100 * time.Millisecond)
	c.Tick(ctx)
	settle(c)
	if _, _, polls, _ := engine.Counts(); polls != 2 {
		t.Fatalf("polls after reconnect = %d, want 2", polls)
	}
}

func TestIdleReconnectWaitsForQueuedBatches(t *testing.T) {
	ctx := context.Background()
	engine := enginefake.New()
	engine.OnAction = func(protocol.PerformActionRequest) enginefake.Script {
		return enginefake.Script{
			Immediate: protocol.FromCommand(protocol.WaitCommand{Duration: protocol.Ms(1500)}),
		}
	}
	clk := &clock{now: epoch}
	c := newInProcessClient(t, engine, clk, time.Second)
	c.Connect(ctx)

	first, _ := c.PerformAction(ctx, protocol.NoOpAction{})
	second, _ := c.PerformAction(ctx, protocol.NoOpAction{})
	if !c.sequencer.Busy() || c.sequencer.Pending() != 1 {
		t.Fatalf("busy = %v pending = %d, want a running batch and one queued", c.sequencer.Busy(), c.sequencer.Pending())
	}

	for elapsed := time.Duration(0); elapsed < 10*time.Second; elapsed += 100 * time.Millisecond {
		queued := c.sequencer.Busy() || c.sequencer.Pending() > 0
		before, _, _, _ := engine.Counts()
		clk.Advance(100 * time.Millisecond)
		c.Tick(ctx)
		after, _, _, _ := engine.Counts()
		if after > before && queued {
			t.Fatalf("reconnected at %v with batches still queued", clk.Now().Sub(epoch))
		}
	}

	if !c.tracker.IsComplete(first) || !c.tracker.IsComplete(second) {
		t.Fatal("expected both actions to be fully applied")
	}
	if connects, _, _, _ := engine.Counts(); connects < 2 {
		t.Fatalf("connects = %d, want an idle reconnect once the queue drained", connects)
	}
}

// gatedTransport answers immediately except for connects made while gate
// is set, which block until it is closed.
type gatedTransport struct {
	mu       sync.Mutex
	gate     chan struct{}
	connects int
}

func (g *gatedTransport) Mode() transport.Mode { return transport.ModeLoopback }

func (g *gatedTransport) Connect(context.Context, protocol.ConnectRequest) (protocol.ConnectResponse, error) {
	g.mu.Lock()
	g.connects++
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return protocol.ConnectResponse{}, nil
}

func (g *gatedTransport) PerformAction(context.Context, protocol.PerformActionRequest) (protocol.PerformActionResponse, error) {
	return protocol.PerformActionResponse{}, nil
}

func (g *gatedTransport) Poll(context.Context, protocol.PollRequest) (protocol.PollResponse, error) {
	return protocol.PollResponse{ResponseType: protocol.PollNone}, nil
}

func (g *gatedTransport) Log(context.Context, protocol.ClientLogRequest) error {
	return nil
}

func (g *gatedTransport) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connects
}

func TestSkippedIdleReconnectDoesNotDelayNextOne(t *testing.T) {
	ctx := context.Background()
	tr := &gatedTransport{}
	clk := &clock{now: epoch}
	c, err := New(Config{
		Transport:     tr,
		Session:       session.New(testUser, session.Environment{}, nil),
		Applier:       dispatch.New(discard),
		PollInterval:  time.Hour,
		IdleThreshold: time.Second,
		Now:           clk.Now,
		Logf:          discard,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.Connect(ctx)
	settle(c)

	gate := make(chan struct{})
	tr.mu.Lock()
	tr.gate = gate
	tr.mu.Unlock()

	clk.Advance(1500 * time.Millisecond)
	c.Tick(ctx)

	// Due again while the idle reconnect is still in flight; skipped.
	clk.Advance(1500 * time.Millisecond)
	c.Tick(ctx)
	close(gate)
	settle(c)
	if tr.count() != 2 {
		t.Fatalf("connects = %d, want one idle reconnect while connecting", tr.count())
	}

	clk.Advance(200 * time.Millisecond)
	c.Tick(ctx)
	settle(c)
	if tr.count() != 3 {
		t.Fatalf("connects = %d, want the next idle reconnect right away", tr.count())
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
