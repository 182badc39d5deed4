package node

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cassitly/cvm-go/internal/errors"
)

const (
	// MinimumVersion is the minimum supported Node.js version.
	MinimumVersion = "18.0.0"

	// VersionCheckTimeout is the timeout for the runtime version check command.
	VersionCheckTimeout = 2 * time.Second
)

// Config holds configuration for runtime discovery.
type Config struct {
	// NodePath is an explicit runtime path or command name that skips
	// the default search. If empty, discovery will search PATH and
	// common install locations for "node".
	NodePath string

	// SkipVersionCheck skips version validation during discovery.
	// Can also be controlled via the CVM_SKIP_VERSION_CHECK env var.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates and validates the Node.js runtime binary.
type Discoverer interface {
	// Discover locates the runtime binary and validates its version.
	// Returns the path to the binary or an error.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new runtime discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the Node.js runtime binary and validates its version.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Discovering Node.js runtime")

	nodePath, err := d.findNode()
	if err != nil {
		d.log.Error("Failed to find Node.js runtime", "error", err)

		return "", err
	}

	d.log.Debug("Found Node.js runtime", "node_path", nodePath)

	// Check version unless skipped
	d.checkVersion(ctx, nodePath)

	return nodePath, nil
}

// findNode locates the Node.js runtime binary.
func (d *discoverer) findNode() (string, error) {
	// If an explicit path is provided, use it and only it. Bare command
	// names such as "node" are resolved through PATH.
	if d.cfg.NodePath != "" {
		d.log.Debug("Using explicit runtime path", "node_path", d.cfg.NodePath)

		if _, err := os.Stat(d.cfg.NodePath); err == nil {
			return d.cfg.NodePath, nil
		}

		if !strings.ContainsRune(d.cfg.NodePath, os.PathSeparator) {
			if path, err := exec.LookPath(d.cfg.NodePath); err == nil {
				return path, nil
			}
		}

		d.log.Debug("Explicit runtime path not found", "node_path", d.cfg.NodePath)

		return "", &errors.NodeNotFoundError{SearchedPaths: []string{d.cfg.NodePath}}
	}

	searchedPaths := make([]string, 0, 5)

	// Search in PATH
	d.log.Debug("Searching for 'node' in PATH")

	if path, err := exec.LookPath("node"); err == nil {
		d.log.Debug("Found 'node' in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	// Check common locations
	commonPaths := []string{
		"/usr/local/bin/node",
		"/usr/bin/node",
		"/opt/homebrew/bin/node",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin/node"))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)
		d.log.Debug("Checking common path", "path", path)

		if _, err := os.Stat(path); err == nil {
			d.log.Debug("Found runtime at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("Node.js runtime not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.NodeNotFoundError{SearchedPaths: searchedPaths}
}

// checkVersion checks if the Node.js version meets minimum requirements.
// Logs a warning if version is below minimum. Errors are silently ignored.
func (d *discoverer) checkVersion(ctx context.Context, nodePath string) {
	// Skip if configured
	if d.cfg.SkipVersionCheck {
		d.log.Debug("Skipping runtime version check (configured)")

		return
	}

	// Skip if env var is set
	if os.Getenv("CVM_SKIP_VERSION_CHECK") != "" {
		d.log.Debug("Skipping runtime version check (CVM_SKIP_VERSION_CHECK set)")

		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	// Run node --version
	cmd := exec.CommandContext(ctx, nodePath, "--version")

	output, err := cmd.Output()
	if err != nil {
		// Silently ignore errors
		d.log.Debug("Runtime version check failed", "error", err)

		return
	}

	// Parse version with regex: node prints "vX.Y.Z"
	versionStr := strings.TrimSpace(string(output))
	re := regexp.MustCompile(`^v?([0-9]+\.[0-9]+\.[0-9]+)`)

	match := re.FindStringSubmatch(versionStr)
	if match == nil {
		d.log.Debug("Could not parse runtime version", "output", versionStr)

		return
	}

	version := match[1]
	if compareVersions(version, MinimumVersion) < 0 {
		d.log.Warn("Node.js version is below the supported minimum",
			"version", version,
			"minimum_required", MinimumVersion,
		)

		fmt.Fprintf(os.Stderr,
			"Warning: Node.js version %s is below the supported minimum %s. "+
				"The bridge may not work correctly.\n",
			version, MinimumVersion,
		)
	} else {
		d.log.Debug("Runtime version check passed", "version", version, "minimum", MinimumVersion)
	}
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
