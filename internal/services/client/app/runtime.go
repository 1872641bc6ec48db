package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/platform/id"
	"github.com/louisbranch/dreamtides/internal/platform/timeouts"
	"github.com/louisbranch/dreamtides/internal/services/client/dispatch"
	"github.com/louisbranch/dreamtides/internal/services/client/present"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/session"
	"github.com/louisbranch/dreamtides/internal/services/client/storage"
	clientsqlite "github.com/louisbranch/dreamtides/internal/services/client/storage/sqlite"
	"github.com/louisbranch/dreamtides/internal/services/client/transport"
)

// RuntimeConfig controls client startup, dependencies and loop behavior.
type RuntimeConfig struct {
	// EngineURL selects the loopback transport.
	EngineURL string
	// Engine selects the in-process transport. It wins over EngineURL.
	Engine transport.Engine

	DBPath string
	Locale string

	TickInterval  time.Duration
	PollInterval  time.Duration
	IdleThreshold time.Duration
	RetryInterval time.Duration

	PersistentDataPath  string
	StreamingAssetsPath string
	ScreenWidth         float32
	ScreenHeight        float32

	// IntegrationTestID marks an automated run: request ids become
	// deterministic and the engine is asked for a seeded battle.
	IntegrationTestID string
	TestSeed          uint64

	// Actions supplies one JSON-encoded game action per line.
	Actions io.Reader
	// ExitWhenIdle stops the loop once Actions is exhausted and every
	// submitted action has been fully applied.
	ExitWhenIdle bool

	Out  io.Writer
	Logf func(string, ...any)
}

// Run starts the client and processes actions until ctx ends, or until
// the action stream is exhausted and settled when ExitWhenIdle is set.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = timeouts.Tick
	}
	if cfg.Engine == nil && strings.TrimSpace(cfg.EngineURL) == "" {
		return fmt.Errorf("engine url is required")
	}

	var (
		identity  storage.IdentityStore
		exchanges storage.ExchangeStore
	)
	if path := strings.TrimSpace(cfg.DBPath); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create client storage dir: %w", err)
			}
		}
		store, err := clientsqlite.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open client sqlite store: %w", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				cfg.Logf("close client sqlite store: %v", closeErr)
			}
		}()
		identity, exchanges = store, store
	}

	userID, err := resolveUserID(ctx, identity)
	if err != nil {
		return err
	}

	engineTransport, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	engineTransport = transport.NewRecording(engineTransport, exchanges, cfg.Logf)

	env, newID, err := sessionEnvironment(cfg)
	if err != nil {
		return err
	}

	presenter, err := present.New(present.Options{Locale: cfg.Locale, Out: cfg.Out, Logf: cfg.Logf})
	if err != nil {
		return err
	}
	dispatcher := dispatch.New(cfg.Logf)
	if err := presenter.Register(dispatcher); err != nil {
		return fmt.Errorf("register presenter: %w", err)
	}

	client, err := New(Config{
		Transport:     engineTransport,
		Session:       session.New(userID, env, newID),
		Applier:       dispatcher,
		PollInterval:  cfg.PollInterval,
		IdleThreshold: cfg.IdleThreshold,
		RetryInterval: cfg.RetryInterval,
		Logf:          cfg.Logf,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		if closeErr := client.Close(closeCtx); closeErr != nil {
			cfg.Logf("close client: %v", closeErr)
		}
	}()

	cfg.Logf("client %s connecting via %s", userID, engineTransport.Mode())
	client.Connect(ctx)

	ready := make(chan struct{})
	exhausted := cfg.Actions == nil
	if cfg.Actions != nil {
		go feedActions(ctx, client, cfg.Actions, ready, cfg.Logf, func() { exhausted = true })
	}

	signaled := false
	until := func() bool {
		if !signaled && client.Connected() {
			signaled = true
			close(ready)
		}
		return cfg.ExitWhenIdle && exhausted && signaled && client.Idle()
	}
	err = client.Run(ctx, cfg.TickInterval, until)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// feedActions decodes one action per line and posts each submission to
// the loop once ready is closed. onEOF runs on the loop after the last
// action was submitted.
func feedActions(ctx context.Context, client *Client, r io.Reader, ready <-chan struct{}, logf func(string, ...any), onEOF func()) {
	select {
	case <-ready:
	case <-ctx.Done():
		return
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		action, err := protocol.UnmarshalAction([]byte(line))
		if err != nil {
			logf("skip action %q: %v", line, err)
			continue
		}
		if !client.Post(func(time.Time) {
			if requestID, ok := client.PerformAction(ctx, action); ok {
				logf("submitted %s as %s", action.ActionKind(), requestID)
			}
		}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logf("read actions: %v", err)
	}
	client.Post(func(time.Time) { onEOF() })
}

func resolveUserID(ctx context.Context, identity storage.IdentityStore) (uuid.UUID, error) {
	if identity == nil {
		return id.New(), nil
	}
	userID, err := identity.LoadUserID(ctx)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("load user id: %w", err)
	}
	userID = id.New()
	if err := identity.SaveUserID(ctx, userID); err != nil {
		return uuid.Nil, fmt.Errorf("save user id: %w", err)
	}
	return userID, nil
}

func buildTransport(cfg RuntimeConfig) (transport.Transport, error) {
	if cfg.Engine != nil {
		return transport.NewInProcess(cfg.Engine)
	}
	return transport.NewHTTP(cfg.EngineURL, nil)
}

func sessionEnvironment(cfg RuntimeConfig) (session.Environment, id.Generator, error) {
	env := session.Environment{
		PersistentDataPath:  cfg.PersistentDataPath,
		StreamingAssetsPath: cfg.StreamingAssetsPath,
	}
	if cfg.ScreenWidth > 0 && cfg.ScreenHeight > 0 {
		env.Display = &protocol.DisplayProperties{ScreenWidth: cfg.ScreenWidth, ScreenHeight: cfg.ScreenHeight}
	}
	if strings.TrimSpace(cfg.IntegrationTestID) == "" {
		return env, id.New, nil
	}
	testID, err := id.Parse(cfg.IntegrationTestID)
	if err != nil {
		return session.Environment{}, nil, fmt.Errorf("integration test id: %w", err)
	}
	env.IntegrationTestID = &testID
	env.TestSeed = cfg.TestSeed
	return env, id.Sequence(testID.String()), nil
}
