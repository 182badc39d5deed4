package bridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cassitly/cvm-go/internal/config"
	"github.com/cassitly/cvm-go/internal/errors"
	"github.com/cassitly/cvm-go/internal/protocol"
	"github.com/cassitly/cvm-go/internal/subprocess"
	"github.com/cassitly/cvm-go/internal/vfs"
)

// Bridge is one live connection to a bridge process.
type Bridge struct {
	log        *slog.Logger
	transport  config.Transport
	controller *protocol.Controller
	options    *config.Options
	fs         *vfs.FS

	// Errgroup for goroutine management
	eg *errgroup.Group

	// Lifecycle management
	mu        sync.Mutex
	done      chan struct{}
	connected bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new bridge.
//
// The bridge is not connected after creation. Call Start() with options to
// spawn the bridge process.
func New() *Bridge {
	return &Bridge{
		done: make(chan struct{}),
	}
}

// isConnected returns true if the bridge is connected.
// This method is safe to call from any goroutine.
func (b *Bridge) isConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.connected
}

// Start spawns the bridge process and begins serving calls.
//
// Process preflight (runtime discovery, version probe, pipe setup) is
// bounded by the configured startup timeout. The process itself lives until
// Close(); construction does not wait for the remote side to signal
// readiness.
//
// Returns NodeNotFoundError if the runtime binary cannot be located, or
// SpawnError if the process fails to start.
func (b *Bridge) Start(ctx context.Context, options *config.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.ErrBridgeClosed
	}

	if b.connected {
		return errors.ErrBridgeAlreadyConnected
	}

	// Default to empty options if nil
	if options == nil {
		options = &config.Options{}
	}

	// Extract logger from options, defaulting to a no-op logger
	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	b.log = log.With("component", "bridge")
	b.options = options

	// Create or use injected transport
	var transport config.Transport

	if options.Transport != nil {
		transport = options.Transport

		b.log.Debug("Using injected custom transport")
	} else {
		transport = subprocess.NewNodeTransport(b.log, options)
	}

	startCtx, cancel := context.WithTimeout(ctx, options.EffectiveStartupTimeout())
	defer cancel()

	if err := transport.Start(startCtx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	b.transport = transport

	b.log.Info("Starting bridge")

	// Create errgroup with background context for goroutine management.
	// We use context.Background() instead of the caller's ctx because:
	// 1. The caller's ctx may have a timeout for startup operations
	// 2. When that timeout expires, it would kill the read loop and monitor
	// 3. The bridge should remain connected until explicitly closed via Close()
	// 4. The b.done channel provides explicit shutdown signaling
	var egCtx context.Context

	b.eg, egCtx = errgroup.WithContext(context.Background())

	// Create protocol controller for request/response correlation. It reads
	// on the errgroup context so a startup deadline cannot kill a healthy
	// bridge.
	b.controller = protocol.NewController(b.log, transport, options.EffectiveCallTimeout())
	if err := b.controller.Start(egCtx); err != nil {
		transport.Close()

		return fmt.Errorf("start protocol controller: %w", err)
	}

	b.fs = vfs.New(b)

	// Watch for transport death so it reaches the log even when no call is
	// in flight to surface it
	b.eg.Go(func() error {
		return b.monitor(egCtx)
	})

	b.connected = true
	b.log.Info("Bridge started successfully")

	return nil
}

// monitor waits for the controller to stop and records the cause.
// Returns the fatal error if the transport died, nil on normal shutdown.
func (b *Bridge) monitor(ctx context.Context) error {
	select {
	case <-b.controller.Done():
		if err := b.controller.FatalError(); err != nil {
			b.log.Error("Bridge connection failed", "error", err)

			return err
		}

		b.log.Debug("Controller stopped")

		return nil

	case <-b.done:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call invokes a named method on the bridge process and waits for its
// result. It blocks until the response arrives, the call timeout expires,
// or the connection fails.
func (b *Bridge) Call(ctx context.Context, method string, params ...any) (any, error) {
	b.mu.Lock()
	closed := b.closed
	connected := b.connected
	b.mu.Unlock()

	if closed {
		return nil, errors.ErrBridgeClosed
	}

	if !connected {
		return nil, errors.ErrBridgeNotConnected
	}

	return b.controller.Call(ctx, method, params)
}

// FS returns the typed filesystem facade backed by this bridge.
func (b *Bridge) FS() *vfs.FS {
	return b.fs
}

// Close terminates the bridge process and cleans up resources.
//
// After Close(), the bridge cannot be reused - create a new one with New().
// This method is safe to call multiple times. Shutdown failures are logged
// rather than returned, so Close always reports success.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		wasConnected := b.connected
		b.connected = false
		b.mu.Unlock()

		if !wasConnected {
			return
		}

		b.log.Info("Closing bridge")

		// Signal shutdown
		close(b.done)

		// Stop protocol controller
		if b.controller != nil {
			b.controller.Stop()
		}

		// Close transport; failures here are logged, not returned
		if b.transport != nil {
			if err := b.transport.Close(); err != nil {
				b.log.Warn("Failed to close transport", "error", err)
			}
		}

		// Wait for the monitor goroutine to complete
		if b.eg != nil {
			if err := b.eg.Wait(); err != nil {
				b.log.Debug("Bridge monitor finished", "error", err)
			}
		}

		b.log.Info("Bridge closed")
	})

	return nil
}
