package cvm_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	cvm "github.com/cassitly/cvm-go"
)

// stubTransport answers every call with a fixed result. It implements
// cvm.Transport from outside the package, the same position callers
// injecting their own transports are in.
type stubTransport struct {
	mu     sync.Mutex
	closed bool
	frames chan map[string]any
	errs   chan error
	result any
}

func newStubTransport(result any) *stubTransport {
	return &stubTransport{
		frames: make(chan map[string]any, 16),
		errs:   make(chan error, 1),
		result: result,
	}
}

func (s *stubTransport) Start(_ context.Context) error { return nil }

func (s *stubTransport) ReadFrames(_ context.Context) (<-chan map[string]any, <-chan error) {
	return s.frames, s.errs
}

func (s *stubTransport) SendFrame(_ context.Context, data []byte) error {
	var req map[string]any
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("transport closed")
	}

	s.frames <- map[string]any{"id": req["id"], "result": s.result}

	return nil
}

func (s *stubTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.frames)
		close(s.errs)
	}

	return nil
}

func (s *stubTransport) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

var _ cvm.Transport = (*stubTransport)(nil)

func TestWithVM_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := cvm.WithVM(ctx, func(_ cvm.Bridge) error {
		t.Error("callback should not be called with cancelled context")

		return nil
	})
	if err == nil {
		t.Error("expected error for cancelled context")
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWithVM_CallbackRuns(t *testing.T) {
	ctx := context.Background()
	transport := newStubTransport(true)

	var called bool

	err := cvm.WithVM(ctx, func(vm cvm.Bridge) error {
		called = true

		result, callErr := vm.Call(ctx, "exists", "notes.txt")
		if callErr != nil {
			return callErr
		}

		if result != true {
			t.Errorf("expected true result, got %v", result)
		}

		return nil
	}, cvm.WithTransport(transport))
	if err != nil {
		t.Fatalf("WithVM failed: %v", err)
	}

	if !called {
		t.Error("callback was not called")
	}
}

func TestWithVM_CallbackError(t *testing.T) {
	ctx := context.Background()
	transport := newStubTransport("ok")

	wantErr := errors.New("callback failed")

	err := cvm.WithVM(ctx, func(_ cvm.Bridge) error {
		return wantErr
	}, cvm.WithTransport(transport))

	if !errors.Is(err, wantErr) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestWithVM_ClosesBridge(t *testing.T) {
	ctx := context.Background()
	transport := newStubTransport("ok")

	err := cvm.WithVM(ctx, func(_ cvm.Bridge) error {
		return nil
	}, cvm.WithTransport(transport))
	if err != nil {
		t.Fatalf("WithVM failed: %v", err)
	}

	if !transport.isClosed() {
		t.Error("transport was not closed after callback returned")
	}
}

func TestWithVM_StartFailure(t *testing.T) {
	ctx := context.Background()

	err := cvm.WithVM(ctx, func(_ cvm.Bridge) error {
		t.Error("callback should not run when startup fails")

		return nil
	}, cvm.WithNodePath("/nonexistent/path/to/node"))
	if err == nil {
		t.Error("expected error when runtime is missing")
	}
}
