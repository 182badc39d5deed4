package node

import (
	"fmt"
	"os"

	"github.com/cassitly/cvm-go/internal/config"
)

// BuildArgs constructs the runtime arguments for the bridge process.
// The bridge script path is the only argument.
func BuildArgs(options *config.Options) []string {
	return []string{options.EffectiveBridgeScript()}
}

// BuildEnvironment constructs the environment variables for the bridge process.
func BuildEnvironment(options *config.Options) []string {
	// Start with current environment
	env := os.Environ()

	// Add or override with user-provided environment variables
	for key, value := range options.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}
