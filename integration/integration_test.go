//go:build integration

package integration

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	cvm "github.com/cassitly/cvm-go"
)

// skipIfNodeNotInstalled skips the test when no node binary is in PATH.
func skipIfNodeNotInstalled(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not installed")
	}
}

// bridgeScript returns the absolute path to the test bridge script.
func bridgeScript(t *testing.T) string {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("testdata", "bridge.js"))
	if err != nil {
		t.Fatalf("resolve bridge script: %v", err)
	}

	return path
}

// startVM spawns a bridge against the test script and registers cleanup.
func startVM(t *testing.T, opts ...cvm.Option) cvm.Bridge {
	t.Helper()
	skipIfNodeNotInstalled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts = append(opts, cvm.WithBridgeScript(bridgeScript(t)))

	vm, err := cvm.New(ctx, opts...)
	if err != nil {
		t.Fatalf("start bridge: %v", err)
	}

	t.Cleanup(func() {
		_ = vm.Close()
	})

	return vm
}
