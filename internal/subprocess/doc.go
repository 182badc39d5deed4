// Package subprocess provides the subprocess-based transport for the bridge.
//
// This package implements the Transport interface by spawning the bridge
// script in a Node.js child process and exchanging blank-line-delimited JSON
// frames over stdin/stdout. It handles process lifecycle management, frame
// buffering, and error handling.
package subprocess
