// Package client parses client flags and launches the engine client.
package client

import (
	"context"
	"flag"
	"io"
	"time"

	entrypoint "github.com/louisbranch/dreamtides/internal/platform/cmd"
	"github.com/louisbranch/dreamtides/internal/services/client/app"
)

// Config holds client command configuration.
type Config struct {
	EngineURL string `env:"DREAMTIDES_CLIENT_ENGINE_URL" envDefault:"http://localhost:26598"`
	DBPath    string `env:"DREAMTIDES_CLIENT_DB_PATH" envDefault:"data/client.db"`
	Locale    string `env:"DREAMTIDES_CLIENT_LOCALE" envDefault:"en-US"`

	TickInterval  time.Duration `env:"DREAMTIDES_CLIENT_TICK_INTERVAL" envDefault:"16ms"`
	PollInterval  time.Duration `env:"DREAMTIDES_CLIENT_POLL_INTERVAL" envDefault:"100ms"`
	IdleThreshold time.Duration `env:"DREAMTIDES_CLIENT_IDLE_THRESHOLD" envDefault:"60s"`
	RetryInterval time.Duration `env:"DREAMTIDES_CLIENT_RETRY_INTERVAL" envDefault:"1s"`

	PersistentDataPath  string `env:"DREAMTIDES_CLIENT_PERSISTENT_DATA_PATH" envDefault:"data"`
	StreamingAssetsPath string `env:"DREAMTIDES_CLIENT_STREAMING_ASSETS_PATH"`

	IntegrationTestID string `env:"DREAMTIDES_CLIENT_INTEGRATION_TEST_ID"`
	TestSeed          uint64 `env:"DREAMTIDES_CLIENT_TEST_SEED" envDefault:"0"`

	ExitWhenIdle bool `env:"DREAMTIDES_CLIENT_EXIT_WHEN_IDLE" envDefault:"false"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.EngineURL, "engine-url", cfg.EngineURL, "Rules engine loopback URL")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Client SQLite path (empty disables storage)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Presenter locale")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Loop tick interval")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Engine poll interval")
	fs.DurationVar(&cfg.IdleThreshold, "idle-threshold", cfg.IdleThreshold, "Idle time before reconnecting")
	fs.DurationVar(&cfg.RetryInterval, "retry-interval", cfg.RetryInterval, "Delay between reconnect attempts")
	fs.StringVar(&cfg.PersistentDataPath, "persistent-data-path", cfg.PersistentDataPath, "Path reported to the engine for save data")
	fs.StringVar(&cfg.StreamingAssetsPath, "streaming-assets-path", cfg.StreamingAssetsPath, "Path reported to the engine for assets")
	fs.StringVar(&cfg.IntegrationTestID, "integration-test-id", cfg.IntegrationTestID, "Run as an integration test with this id")
	fs.Uint64Var(&cfg.TestSeed, "test-seed", cfg.TestSeed, "Engine seed for integration tests")
	fs.BoolVar(&cfg.ExitWhenIdle, "exit-when-idle", cfg.ExitWhenIdle, "Exit once stdin is exhausted and all actions are applied")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the client, reading actions from actions.
func Run(ctx context.Context, cfg Config, actions io.Reader, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceClient, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			EngineURL:           cfg.EngineURL,
			DBPath:              cfg.DBPath,
			Locale:              cfg.Locale,
			TickInterval:        cfg.TickInterval,
			PollInterval:        cfg.PollInterval,
			IdleThreshold:       cfg.IdleThreshold,
			RetryInterval:       cfg.RetryInterval,
			PersistentDataPath:  cfg.PersistentDataPath,
			StreamingAssetsPath: cfg.StreamingAssetsPath,
			IntegrationTestID:   cfg.IntegrationTestID,
			TestSeed:            cfg.TestSeed,
			Actions:             actions,
			ExitWhenIdle:        cfg.ExitWhenIdle,
			Out:                 out,
		})
	})
}
