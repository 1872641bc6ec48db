// Package timeouts defines shared timeout constants used by the client
// runtime. Keeping them in one place keeps the tick loop, transports and
// shutdown paths consistent.
package timeouts

import "time"

// EngineRequest caps a single loopback engine round trip.
const EngineRequest = 10 * time.Second

// Tick is the default cooperative tick period of the client loop.
const Tick = 16 * time.Millisecond

// PollInterval is the default spacing between engine poll requests.
const PollInterval = 100 * time.Millisecond

// IdleReconnect is the default inactivity threshold before a forced
// reconnect, and the minimum spacing between two forced reconnects.
const IdleReconnect = 60 * time.Second

// RetryConnect is the default spacing of connect retries after a
// loopback transport failure.
const RetryConnect = time.Second

// Shutdown limits how long the client waits for in-flight engine calls
// when stopping.
const Shutdown = 5 * time.Second
