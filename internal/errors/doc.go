// Package errors defines error types for the bridge.
//
// This package provides structured error types that wrap different failure
// scenarios when spawning and talking to the bridge process. All error types
// support error unwrapping and can be checked using errors.Is, errors.As,
// and errors.AsType.
package errors
