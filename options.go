package cvm

import (
	"log/slog"
	"time"

	"github.com/cassitly/cvm-go/internal/config"
)

// Options configures the bridge. Prefer the functional Option helpers
// below over constructing one by hand.
type Options = config.Options

// Option is a functional option for configuring the bridge.
type Option func(*Options)

// applyOptions applies a list of options and returns the config.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Process Configuration =====

// WithNodePath sets an explicit path to the Node runtime binary.
// If not set, the runtime is searched in PATH and common install
// locations.
func WithNodePath(path string) Option {
	return func(o *Options) {
		o.NodePath = path
	}
}

// WithBridgeScript sets the bridge entry-point script passed to the
// runtime. Defaults to "dist/bridge.js".
func WithBridgeScript(path string) Option {
	return func(o *Options) {
		o.BridgeScript = path
	}
}

// WithCwd sets the working directory for the bridge process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithEnv sets additional environment variables for the bridge process.
// The process always inherits the parent environment; these are appended
// as overrides.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// ===== Timeouts =====

// WithStartupTimeout bounds runtime discovery and the version probe
// during startup. Defaults to 5 seconds.
func WithStartupTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StartupTimeout = d
	}
}

// WithCallTimeout bounds how long each call waits for its response.
// Defaults to 60 seconds. A call whose response never arrives fails with
// ErrCallTimeout instead of blocking forever.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.CallTimeout = d
	}
}

// ===== Observability =====

// WithLogger sets the slog logger for bridge diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithStderr sets a callback invoked with each line the bridge process
// writes to stderr.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Advanced =====

// WithMaxBufferSize caps the bytes buffered while assembling a single
// incoming frame.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) {
		o.MaxBufferSize = &size
	}
}

// WithSkipVersionCheck skips the runtime version probe during discovery.
func WithSkipVersionCheck(skip bool) Option {
	return func(o *Options) {
		o.SkipVersionCheck = skip
	}
}

// WithTransport injects a custom transport implementation.
// If not set, the default Node subprocess transport is created
// automatically. This is primarily useful for testing.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}
