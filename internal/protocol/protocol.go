package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cassitly/cvm-go/internal/errors"
	"github.com/oklog/ulid/v2"
)

// Transport defines the minimal interface needed for protocol operations.
//
// This interface is satisfied by the NodeTransport but allows for testing
// with mock transports.
type Transport interface {
	ReadFrames(ctx context.Context) (<-chan map[string]any, <-chan error)
	SendFrame(ctx context.Context, data []byte) error
}

// Controller manages request/response correlation with the bridge process.
//
// The Controller handles:
//   - Sending request frames with unique request ids
//   - Receiving response frames and routing them to waiting calls
//   - Per-call timeout enforcement
//   - Failing outstanding calls when the transport reports a terminal error
//
// The Controller must be started with Start() before use and manages its own
// goroutine for reading and routing responses.
type Controller struct {
	log       *slog.Logger
	transport Transport

	// How long each call waits for its response
	callTimeout time.Duration

	// Call tracking
	pendingMu sync.RWMutex
	pending   map[string]*pendingCall

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// pendingCall tracks an outgoing request awaiting its response.
type pendingCall struct {
	method   string
	response chan Response
}

// NewController creates a new protocol controller.
//
// The logger will receive debug, info, warn, and error messages during
// protocol operations. The transport must be connected before calling Start().
// callTimeout bounds how long each individual call waits for its response.
func NewController(log *slog.Logger, transport Transport, callTimeout time.Duration) *Controller {
	return &Controller{
		log:         log.With("component", "protocol"),
		transport:   transport,
		callTimeout: callTimeout,
		pending:     make(map[string]*pendingCall, 10),
		done:        make(chan struct{}),
	}
}

// closeDone safely closes the done channel exactly once.
func (c *Controller) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SetFatalError stores a fatal error and broadcasts to all waiters by closing done.
func (c *Controller) SetFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (c *Controller) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done returns a channel that is closed when the controller stops.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start begins reading frames from the transport and routing responses.
//
// This method spawns a goroutine that reads from the transport and routes
// response frames to waiting calls. The goroutine stops when the context
// is cancelled or the transport is closed.
//
// Start must be called before Call.
func (c *Controller) Start(ctx context.Context) error {
	c.log.Debug("Starting protocol controller")

	frames, errs := c.transport.ReadFrames(ctx)

	c.wg.Add(1)

	go c.readLoop(ctx, frames, errs)

	c.log.Info("Protocol controller started")

	return nil
}

// Stop gracefully shuts down the controller.
//
// This method signals the read loop to stop and waits for completion.
// Calls still waiting for responses fail with ErrControllerStopped.
// It's safe to call Stop multiple times.
func (c *Controller) Stop() {
	c.log.Debug("Stopping protocol controller")

	c.closeDone()
	c.wg.Wait()
	c.log.Info("Protocol controller stopped")
}

// Call sends one request frame and waits for the matching response.
//
// This method generates a unique request id, sends the frame, and blocks
// until the response carrying that id arrives, the call timeout expires,
// the context is cancelled, or the controller stops. The pending entry is
// removed on every exit path, so a response arriving after the caller gave
// up is dropped instead of leaking.
//
// Once the controller has stopped, calls fail immediately with the terminal
// cause (the process exit error when there is one) instead of attempting a
// send that can no longer succeed.
//
// A response whose error field is set fails the call with a RemoteError.
// Otherwise the result field is returned, which may be nil.
func (c *Controller) Call(ctx context.Context, method string, params []any) (any, error) {
	// Fail fast if the controller has already stopped
	select {
	case <-c.done:
		return nil, c.terminalError()
	default:
	}

	// Generate unique request ID
	requestID := c.generateRequestID()

	c.log.Debug("Sending request", "request_id", requestID, "method", method)

	// The wire always carries a params array, never null
	if params == nil {
		params = []any{}
	}

	// Create pending call tracker
	responseChan := make(chan Response, 1)
	pending := &pendingCall{
		method:   method,
		response: responseChan,
	}

	c.pendingMu.Lock()
	c.pending[requestID] = pending
	c.pendingMu.Unlock()

	req := &Request{
		ID:     requestID,
		Method: method,
		Params: params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.removePending(requestID)
		c.log.Error("Failed to marshal request", "error", err)

		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := c.transport.SendFrame(ctx, data); err != nil {
		c.removePending(requestID)

		// A send that failed because the transport died surfaces the exit
		// cause rather than the write error it produced.
		if fatal := c.FatalError(); fatal != nil {
			c.log.Warn("Transport error during call", "request_id", requestID, "error", fatal)

			return nil, fmt.Errorf("transport error: %w", fatal)
		}

		c.log.Error("Failed to send request", "error", err)

		return nil, fmt.Errorf("send request: %w", err)
	}

	c.log.Debug("Request sent, waiting for response", "request_id", requestID)

	// Wait for response with timeout
	select {
	case resp := <-responseChan:
		if resp.IsError() {
			errMsg := resp.ErrorMessage()
			c.log.Warn("Call failed remotely", "request_id", requestID, "method", method, "error", errMsg)

			return nil, &errors.RemoteError{Method: method, Message: errMsg}
		}

		c.log.Debug("Received response", "request_id", requestID)

		return resp.Result(), nil

	case <-c.done:
		// Controller stopped (possibly due to transport error) - fail fast
		// Clean up pending call since we're exiting without a response
		c.removePending(requestID)

		if err := c.FatalError(); err != nil {
			c.log.Warn("Transport error during call", "request_id", requestID, "error", err)

			return nil, fmt.Errorf("transport error: %w", err)
		}

		c.log.Debug("Controller stopped during call", "request_id", requestID)

		return nil, errors.ErrControllerStopped

	case <-time.After(c.callTimeout):
		// Clean up pending call since we're exiting without a response
		c.removePending(requestID)
		c.log.Warn("Call timed out", "request_id", requestID, "method", method, "timeout", c.callTimeout)

		return nil, fmt.Errorf("%w after %s", errors.ErrCallTimeout, c.callTimeout)

	case <-ctx.Done():
		// Clean up pending call since we're exiting without a response
		c.removePending(requestID)
		c.log.Debug("Call cancelled", "request_id", requestID)

		return nil, ctx.Err()
	}
}

// removePending drops the tracking entry for a call that will never
// consume its response.
func (c *Controller) removePending(requestID string) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}

// terminalError reports why the controller stopped: the recorded fatal
// error when the transport died, ErrControllerStopped otherwise.
func (c *Controller) terminalError() error {
	if err := c.FatalError(); err != nil {
		return fmt.Errorf("transport error: %w", err)
	}

	return errors.ErrControllerStopped
}

// readLoop reads frames from the transport and routes responses.
func (c *Controller) readLoop(
	ctx context.Context,
	frames <-chan map[string]any,
	errs <-chan error,
) {
	defer c.wg.Done()
	defer c.log.Debug("Protocol read loop stopped")

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				c.log.Debug("Frame channel closed")

				// The transport queues its terminal error before closing
				// the frame channel. Capture it so waiting calls fail with
				// the cause instead of a generic stop.
				select {
				case err := <-errs:
					if err != nil {
						c.SetFatalError(err)
					}
				default:
				}

				c.closeDone()

				return
			}

			c.handleFrame(frame)

		case err, ok := <-errs:
			if !ok {
				c.log.Debug("Error channel closed")

				c.closeDone()

				return
			}

			if err != nil {
				c.log.Debug("Transport error in protocol", "error", err)
				c.SetFatalError(err)

				return
			}

		case <-c.done:
			c.log.Debug("Protocol controller stop signal received")

			return

		case <-ctx.Done():
			c.log.Debug("Context cancelled in protocol read loop")

			return
		}
	}
}

// handleFrame routes a decoded response frame to the waiting call.
func (c *Controller) handleFrame(frame map[string]any) {
	resp := Response(frame)

	requestID, ok := resp.ID()
	if !ok {
		c.log.Warn("Response frame missing id")

		return
	}

	c.log.Debug("Received response frame", "request_id", requestID)

	// Find and claim pending call atomically
	c.pendingMu.Lock()

	pending, exists := c.pending[requestID]
	if exists {
		delete(c.pending, requestID)
	}

	c.pendingMu.Unlock()

	if !exists {
		c.log.Warn("No pending call for response", "request_id", requestID)

		return
	}

	// Send to waiting goroutine (we own it now, blocking is safe since channel is buffered)
	pending.response <- resp
}

// generateRequestID creates a unique request ID using ULID.
func (c *Controller) generateRequestID() string {
	return ulid.Make().String()
}
