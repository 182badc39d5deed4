// Package node provides Node.js runtime discovery, version validation, and
// command building for the bridge process.
//
// This package provides three main capabilities:
//
// # Runtime Discovery
//
// The Discoverer interface locates and validates the Node.js binary:
//
//	discoverer := node.NewDiscoverer(&node.Config{
//	    NodePath: "",           // Optional explicit path
//	    Logger:   slog.Default(),
//	})
//	nodePath, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.NodePath (if provided)
//  2. System PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin,
//     /opt/homebrew/bin, ~/.local/bin)
//
// # Version Validation
//
// During discovery, the runtime version is validated against MinimumVersion
// (18.0.0). A warning is logged if the version is below minimum. Version
// checking can be skipped via Config.SkipVersionCheck or the
// CVM_SKIP_VERSION_CHECK environment variable.
//
// # Command Building
//
// The package provides functions to build the bridge process arguments and
// environment:
//
//	args := node.BuildArgs(options)
//	env := node.BuildEnvironment(options)
package node
