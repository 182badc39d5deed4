package cvm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cassitly/cvm-go/internal/config"
)

// echoTransport is a scriptable in-process transport. It decodes each
// outgoing request and feeds the reply produced by respond back through
// the frame channel.
type echoTransport struct {
	mu      sync.Mutex
	closed  bool
	frames  chan map[string]any
	errs    chan error
	respond func(id, method string, params []any) map[string]any
}

func newEchoTransport(respond func(id, method string, params []any) map[string]any) *echoTransport {
	return &echoTransport{
		frames:  make(chan map[string]any, 64),
		errs:    make(chan error, 1),
		respond: respond,
	}
}

// resultTransport answers every call with the given result.
func resultTransport(result any) *echoTransport {
	return newEchoTransport(func(id, _ string, _ []any) map[string]any {
		return map[string]any{"id": id, "result": result}
	})
}

func (e *echoTransport) Start(_ context.Context) error { return nil }

func (e *echoTransport) ReadFrames(_ context.Context) (<-chan map[string]any, <-chan error) {
	return e.frames, e.errs
}

func (e *echoTransport) SendFrame(_ context.Context, data []byte) error {
	var req struct {
		ID     string `json:"id"`
		Method string `json:"method"`
		Params []any  `json:"params"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New("transport closed")
	}

	if reply := e.respond(req.ID, req.Method, req.Params); reply != nil {
		e.frames <- reply
	}

	return nil
}

func (e *echoTransport) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.frames)
		close(e.errs)
	}

	return nil
}

func (e *echoTransport) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}

// Compile-time check that echoTransport implements config.Transport.
var _ config.Transport = (*echoTransport)(nil)

// TestNew_WithTransport tests bridge creation over an injected transport.
func TestNew_WithTransport(t *testing.T) {
	ctx := context.Background()

	vm, err := New(ctx, WithTransport(resultTransport("pong")))
	require.NoError(t, err)

	defer vm.Close()

	result, err := vm.Call(ctx, "ping")
	require.NoError(t, err)
	require.Equal(t, "pong", result)
}

// TestNew_NodeNotFound tests creation with an invalid runtime path.
func TestNew_NodeNotFound(t *testing.T) {
	ctx := context.Background()

	vm, err := New(ctx, WithNodePath("/nonexistent/path/to/node"))
	require.Error(t, err)
	require.Nil(t, vm)

	_, ok := errors.AsType[*NodeNotFoundError](err)
	require.True(t, ok)
}

// TestNew_CancelledContext tests creation with a cancelled context.
func TestNew_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, WithNodePath("/nonexistent/path/to/node"))
	require.Error(t, err)
}

// TestBridge_CallEchoesParams tests that params travel to the remote side
// and its result travels back.
func TestBridge_CallEchoesParams(t *testing.T) {
	ctx := context.Background()

	transport := newEchoTransport(func(id, method string, params []any) map[string]any {
		return map[string]any{"id": id, "result": fmt.Sprintf("%s(%v)", method, params)}
	})

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	defer vm.Close()

	result, err := vm.Call(ctx, "writeFile", "notes.txt", "hello")
	require.NoError(t, err)
	require.Equal(t, "writeFile([notes.txt hello])", result)
}

// TestBridge_ConcurrentCalls tests that many in-flight calls each get
// their own response.
func TestBridge_ConcurrentCalls(t *testing.T) {
	ctx := context.Background()

	// Answer each call with its first param so callers can verify they
	// got their own response back.
	transport := newEchoTransport(func(id, _ string, params []any) map[string]any {
		return map[string]any{"id": id, "result": params[0]}
	})

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	defer vm.Close()

	const goroutines = 20

	var wg sync.WaitGroup

	results := make([]any, goroutines)
	callErrs := make([]error, goroutines)

	for i := range goroutines {
		wg.Go(func() {
			results[i], callErrs[i] = vm.Call(ctx, "echo", float64(i))
		})
	}

	wg.Wait()

	for i := range goroutines {
		require.NoError(t, callErrs[i])
		require.Equal(t, float64(i), results[i])
	}
}

// TestBridge_RemoteError tests that a remote failure surfaces as RemoteError.
func TestBridge_RemoteError(t *testing.T) {
	ctx := context.Background()

	transport := newEchoTransport(func(id, _ string, _ []any) map[string]any {
		return map[string]any{"id": id, "error": "boom"}
	})

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	defer vm.Close()

	_, err = vm.Call(ctx, "explode")
	require.Error(t, err)

	remoteErr, ok := errors.AsType[*RemoteError](err)
	require.True(t, ok)
	require.Equal(t, "explode", remoteErr.Method)
	require.Equal(t, "boom", remoteErr.Message)
}

// TestBridge_CallTimeout tests that an unanswered call fails with ErrCallTimeout.
func TestBridge_CallTimeout(t *testing.T) {
	ctx := context.Background()

	// Swallow every request without answering.
	transport := newEchoTransport(func(_, _ string, _ []any) map[string]any {
		return nil
	})

	vm, err := New(ctx,
		WithTransport(transport),
		WithCallTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	defer vm.Close()

	_, err = vm.Call(ctx, "sleep")
	require.ErrorIs(t, err, ErrCallTimeout)
}

// TestBridge_FSRoundTrip tests the typed filesystem surface over the bridge.
func TestBridge_FSRoundTrip(t *testing.T) {
	ctx := context.Background()

	transport := newEchoTransport(func(id, method string, params []any) map[string]any {
		switch method {
		case "readFile":
			return map[string]any{"id": id, "result": "hello"}
		case "readdir":
			return map[string]any{"id": id, "result": []any{"a.txt", "b.txt"}}
		case "exists":
			return map[string]any{"id": id, "result": true}
		default:
			return map[string]any{"id": id, "result": nil}
		}
	})

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	defer vm.Close()

	fs := vm.FS()

	require.NoError(t, fs.WriteFile(ctx, "notes.txt", "hello"))

	content, err := fs.ReadFile(ctx, "notes.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", content)

	entries, err := fs.ReadDir(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, entries)

	ok, err := fs.Exists(ctx, "notes.txt")
	require.NoError(t, err)
	require.True(t, ok)
}

// TestBridge_CloseMultipleTimes tests idempotent close.
func TestBridge_CloseMultipleTimes(t *testing.T) {
	ctx := context.Background()

	vm, err := New(ctx, WithTransport(resultTransport("ok")))
	require.NoError(t, err)

	err = vm.Close()
	require.NoError(t, err)

	err = vm.Close()
	require.NoError(t, err)

	err = vm.Close()
	require.NoError(t, err)
}

// TestBridge_CallAfterClose tests that calls fail once the bridge is closed.
func TestBridge_CallAfterClose(t *testing.T) {
	ctx := context.Background()

	vm, err := New(ctx, WithTransport(resultTransport("ok")))
	require.NoError(t, err)

	require.NoError(t, vm.Close())

	_, err = vm.Call(ctx, "ping")
	require.ErrorIs(t, err, ErrBridgeClosed)
}

// TestBridge_CloseStopsTransport tests that Close reaches the transport.
func TestBridge_CloseStopsTransport(t *testing.T) {
	ctx := context.Background()
	transport := resultTransport("ok")

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	require.NoError(t, vm.Close())
	require.True(t, transport.isClosed())
}

// TestBridge_ConcurrentClose tests that concurrent Close calls don't panic.
func TestBridge_ConcurrentClose(t *testing.T) {
	ctx := context.Background()

	vm, err := New(ctx, WithTransport(resultTransport("ok")))
	require.NoError(t, err)

	const goroutines = 10

	var wg sync.WaitGroup

	for range goroutines {
		wg.Go(func() {
			require.NoError(t, vm.Close())
		})
	}

	wg.Wait()
}

// TestBridge_TransportDeath tests that a dying transport fails later calls
// with the exit error.
func TestBridge_TransportDeath(t *testing.T) {
	ctx := context.Background()
	transport := resultTransport("ok")

	vm, err := New(ctx, WithTransport(transport))
	require.NoError(t, err)

	defer vm.Close()

	// Simulate the subprocess dying under the bridge.
	transport.errs <- &ProcessExitError{ExitCode: 1, Stderr: "segfault"}
	transport.Close()

	time.Sleep(50 * time.Millisecond)

	_, err = vm.Call(ctx, "ping")
	require.Error(t, err)

	exitErr, ok := errors.AsType[*ProcessExitError](err)
	require.True(t, ok)
	require.Equal(t, 1, exitErr.ExitCode)
}
