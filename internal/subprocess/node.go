package subprocess

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cassitly/cvm-go/internal/config"
	"github.com/cassitly/cvm-go/internal/errors"
	"github.com/cassitly/cvm-go/internal/framing"
	"github.com/cassitly/cvm-go/internal/node"
)

const (
	// maxScanTokenSize is the default maximum buffer size for reading a
	// single frame from the bridge process.
	maxScanTokenSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit to prevent unbounded memory usage.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// NodeTransport implements Transport by spawning the bridge script in a
// Node.js subprocess.
type NodeTransport struct {
	log            *slog.Logger
	options        *config.Options
	nodePath       string
	args           []string
	env            []string
	cwd            string
	cmd            *exec.Cmd
	stdin          io.WriteCloser
	stdout         io.ReadCloser
	stderr         io.ReadCloser
	stderrCallback func(string) // Callback for streaming stderr output
	mu             sync.Mutex   // Protects stdin writes
	closing        bool         // Whether Close() has been called (intentional shutdown)
	stdinClosed    bool         // Whether stdin was closed (e.g., due to context cancellation)
}

// Compile-time verification that NodeTransport implements the Transport interface.
var _ config.Transport = (*NodeTransport)(nil)

// NewNodeTransport creates a new subprocess transport with the given options.
//
// The logger is used for operation tracking and debugging. It will receive
// debug, info, warn, and error messages during transport operations.
//
// Runtime discovery is deferred to Start(), which searches for the Node.js
// binary in the following order:
//  1. The explicit path in options.NodePath (if provided)
//  2. The system PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin,
//     /opt/homebrew/bin, ~/.local/bin)
//
// Start() returns NodeNotFoundError if the runtime cannot be located.
func NewNodeTransport(log *slog.Logger, options *config.Options) *NodeTransport {
	return &NodeTransport{
		log:            log.With("component", "node_transport"),
		options:        options,
		stderrCallback: options.Stderr,
	}
}

// Start starts the bridge subprocess.
//
// This method discovers the Node.js runtime, builds command arguments,
// and spawns the process with the configured environment variables.
// It sets up stdin, stdout, and stderr pipes for communication.
//
// Returns NodeNotFoundError if the runtime cannot be located,
// or SpawnError if the process fails to start.
func (t *NodeTransport) Start(ctx context.Context) error {
	t.log.Info("Starting bridge subprocess")

	// Discover runtime binary
	discoverer := node.NewDiscoverer(&node.Config{
		NodePath:         t.options.NodePath,
		SkipVersionCheck: t.options.SkipVersionCheck,
		Logger:           t.log,
	})

	nodePath, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover runtime: %w", err)
	}

	t.nodePath = nodePath

	// Build command arguments
	t.args = node.BuildArgs(t.options)
	t.log.Debug("Built command arguments", "args", t.args)

	// Build environment
	t.env = node.BuildEnvironment(t.options)

	// Set working directory
	t.cwd = t.options.Cwd
	if t.cwd == "" {
		t.cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	t.log.Debug("Set working directory", "cwd", t.cwd)

	// The process must outlive ctx, which only bounds startup. Shutdown
	// is owned by Close().
	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for runtime invocation
	cmd := exec.Command(t.nodePath, t.args...)
	cmd.Dir = t.cwd
	cmd.Env = t.env

	// Set up stdin pipe for sending frames
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	t.stdin = stdin

	// Set up stdout pipe
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	t.stdout = stdout

	// Set up stderr pipe for error messages
	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.log.Error("Failed to create stderr pipe", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	t.stderr = stderr

	// Start the process
	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start bridge process", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("start process: %w", err)}
	}

	t.cmd = cmd
	t.log.Info("Bridge subprocess started successfully", "pid", cmd.Process.Pid)

	return nil
}

// ReadFrames reads JSON frames from the bridge process stdout.
//
// This method starts a goroutine that reads blank-line-delimited JSON from
// the process stdout. Each frame is parsed as a JSON object and sent to
// the frames channel.
//
// The goroutine exits when:
//   - The bridge process terminates
//   - The context is cancelled
//   - An unrecoverable error occurs
//
// Frames that fail to decode are dropped and decoding continues with the
// next delimiter; the error channel carries terminal conditions only. The
// goroutine closes both channels when it exits.
func (t *NodeTransport) ReadFrames(
	ctx context.Context,
) (<-chan map[string]any, <-chan error) {
	frames := make(chan map[string]any)
	errs := make(chan error, 1)

	// Start stderr streaming goroutine if callback is set
	var stderrWg sync.WaitGroup

	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	// Always buffer stderr for error reporting (must complete reads before Wait())
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe

	stderrWg.Go(func() {
		// Simple scanner loop - relies on process kill to close pipes and unblock Scan().
		// No nested goroutine needed: when Close() kills the process, the OS closes all
		// pipes, which reliably returns from blocked Read() calls.
		scanner := bufio.NewScanner(t.stderr)
		for scanner.Scan() {
			// Check context between lines for cooperative cancellation
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()

			// Buffer stderr for error reporting (capped at maxStderrBufferSize)
			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			// Invoke callback if set
			if t.stderrCallback != nil {
				t.stderrCallback(line)
			}
		}

		// Log scanner errors (don't fail - process may have exited)
		if err := scanner.Err(); err != nil {
			t.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(frames)
		defer close(errs)
		defer t.log.Debug("ReadFrames goroutine stopped")

		scanner := bufio.NewScanner(t.stdout)
		// Set large buffer for big frames
		bufSize := maxScanTokenSize
		if t.options.MaxBufferSize != nil {
			bufSize = *t.options.MaxBufferSize
		}

		buf := make([]byte, bufSize)
		scanner.Buffer(buf, bufSize)
		scanner.Split(framing.Split)

		frameCount := 0

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				t.log.Debug("Context cancelled during scan", "error", ctx.Err())

				errs <- ctx.Err()

				return
			default:
			}

			payload := scanner.Bytes()

			// Consecutive delimiters produce empty tokens
			if len(payload) == 0 {
				continue
			}

			frame, err := framing.Decode(payload)
			if err != nil {
				// Malformed frames are dropped; decoding continues at the
				// next delimiter.
				t.log.Debug("Dropping malformed frame", "error", err, "frame", string(payload))

				continue
			}

			frameCount++
			t.log.Debug("Received frame from bridge", "frame_count", frameCount)

			select {
			case frames <- frame:
			case <-ctx.Done():
				t.log.Debug("Context cancelled during frame send", "error", ctx.Err())

				errs <- ctx.Err()

				return
			}
		}

		if err := scanner.Err(); err != nil {
			t.log.Error("Scanner error while reading bridge output", "error", err)

			errs <- fmt.Errorf("scanner error: %w", err)
		}

		// Wait for stderr goroutine before process wait
		stderrWg.Wait()

		// Wait for process to exit and capture any errors
		t.log.Debug("Waiting for bridge process to exit")

		waitErr := t.cmd.Wait()

		// Check if this is an intentional shutdown
		t.mu.Lock()
		isClosing := t.closing
		t.mu.Unlock()

		if isClosing {
			t.log.Debug("Bridge process terminated during shutdown")

			return
		}

		stderrMu.Lock()

		stderrOutput := strings.TrimSpace(stderrBuffer.String())

		stderrMu.Unlock()

		exitCode := 0

		if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		// Any exit while the bridge is open fails outstanding calls, exit
		// code zero included.
		t.log.Error("Bridge process exited", "exit_code", exitCode, "stderr", stderrOutput)

		errs <- &errors.ProcessExitError{
			ExitCode: exitCode,
			Stderr:   stderrOutput,
			Err:      waitErr,
		}
	}()

	return frames, errs
}

// SendFrame sends one JSON frame to the bridge process stdin.
//
// The data should be a compact JSON object; the frame delimiter is appended
// if not already present. This method is safe for concurrent use and
// respects context cancellation even during blocking writes.
//
// If context is cancelled during a blocked write, stdin is closed to unblock
// the goroutine (safe since Go 1.9+). Subsequent calls will return ErrStdinClosed.
func (t *NodeTransport) SendFrame(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin == nil {
		return errors.ErrTransportNotConnected
	}

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.log.Debug("Sending frame to bridge", "data_len", len(data))

	// Ensure the frame ends with the delimiter. AppendDelimiter copies, so
	// the caller's backing array is never mutated even with spare capacity.
	if !bytes.HasSuffix(data, []byte(framing.Delimiter)) {
		data = framing.AppendDelimiter(data)
	}

	// Write in goroutine to respect context cancellation
	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write frame to bridge", "error", err)

			return fmt.Errorf("write to stdin: %w", err)
		}

		t.log.Debug("Frame sent successfully")

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")
		// Close stdin to unblock the blocked Write (safe since Go 1.9+)
		if t.stdin != nil {
			_ = t.stdin.Close()
			t.stdinClosed = true
		}
		// Wait for goroutine to exit with timeout to prevent leak
		select {
		case <-done:
			// Write goroutine exited cleanly
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// Close terminates the bridge process.
//
// Stdin is closed first to signal end of input, then the process is killed.
// It's safe to call Close multiple times or on an already-terminated process.
func (t *NodeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closing = true

	if t.stdin != nil && !t.stdinClosed {
		t.log.Debug("Closing stdin pipe")

		if err := t.stdin.Close(); err != nil {
			t.log.Debug("Failed to close stdin pipe", "error", err)
		}
	}

	t.stdinClosed = true

	if t.cmd != nil && t.cmd.Process != nil {
		t.log.Debug("Killing bridge process", "pid", t.cmd.Process.Pid)

		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill bridge process (pid %d): %w", t.cmd.Process.Pid, err)
		}
	}

	return nil
}
