package config

import (
	"log/slog"
	"time"
)

const (
	// DefaultBridgeScript is the bridge entry point executed by the runtime.
	DefaultBridgeScript = "dist/bridge.js"

	// DefaultCallTimeout bounds how long a call waits for its response.
	DefaultCallTimeout = 60 * time.Second

	// DefaultStartupTimeout bounds spawn preflight (runtime discovery and
	// the version probe). Construction never waits for the remote side to
	// signal readiness.
	DefaultStartupTimeout = 5 * time.Second
)

// Options configures the behavior of the bridge.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// NodePath is the explicit path to the Node runtime binary.
	// If empty, the runtime will be searched in PATH and common locations.
	NodePath string

	// BridgeScript is the path to the bridge entry-point script passed to
	// the runtime. Defaults to DefaultBridgeScript.
	BridgeScript string

	// Cwd sets the working directory for the bridge process.
	// If empty, the process inherits the current working directory.
	Cwd string

	// Env provides additional environment variables for the bridge process.
	// The process always inherits the current environment; these are
	// appended as overrides.
	Env map[string]string

	// CallTimeout bounds how long each call waits for its response.
	// Zero means DefaultCallTimeout. A response that never arrives fails
	// the call with ErrCallTimeout instead of blocking forever.
	CallTimeout time.Duration

	// StartupTimeout bounds spawn preflight work.
	// Zero means DefaultStartupTimeout.
	StartupTimeout time.Duration

	// SkipVersionCheck skips the runtime version probe during discovery.
	SkipVersionCheck bool

	// MaxBufferSize sets the maximum bytes for buffering a single incoming
	// frame. If nil, uses the transport default.
	MaxBufferSize *int

	// Stderr is a callback invoked with each line the bridge process writes
	// to stderr.
	Stderr func(string)

	// Transport allows injecting a custom transport implementation.
	// If nil, the default Node subprocess transport is created automatically.
	Transport Transport
}

// EffectiveCallTimeout returns the configured call timeout or the default.
func (o *Options) EffectiveCallTimeout() time.Duration {
	if o.CallTimeout > 0 {
		return o.CallTimeout
	}

	return DefaultCallTimeout
}

// EffectiveStartupTimeout returns the configured startup timeout or the default.
func (o *Options) EffectiveStartupTimeout() time.Duration {
	if o.StartupTimeout > 0 {
		return o.StartupTimeout
	}

	return DefaultStartupTimeout
}

// EffectiveBridgeScript returns the configured bridge script or the default.
func (o *Options) EffectiveBridgeScript() string {
	if o.BridgeScript != "" {
		return o.BridgeScript
	}

	return DefaultBridgeScript
}
