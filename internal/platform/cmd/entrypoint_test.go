package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"
)

type testConfig struct {
	EngineURL    string        `env:"DREAMTIDES_CMD_TEST_ENGINE_URL" envDefault:"http://localhost:26598"`
	PollInterval time.Duration `env:"DREAMTIDES_CMD_TEST_POLL_INTERVAL" envDefault:"100ms"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DREAMTIDES_CMD_TEST_ENGINE_URL", "http://env:9000")
	t.Setenv("DREAMTIDES_CMD_TEST_POLL_INTERVAL", "1s")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.EngineURL, "engine-url", cfg.EngineURL, "engine url")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "poll interval")

	if err := ParseArgs(fs, []string{"-engine-url", "http://flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.EngineURL != "http://flag:9001" {
		t.Fatalf("engine url = %q, want flag value", cfg.EngineURL)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("poll interval = %v, want env value 1s", cfg.PollInterval)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceClient, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("DREAMTIDES_OTEL_ENDPOINT", "")
	want := errors.New("engine unavailable")

	err := RunWithTelemetry(context.Background(), ServiceClient, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("run error = %v, want %v", err, want)
	}
}
