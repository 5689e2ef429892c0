//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are invoked through `go run` or installed globally via
// `go install` and are not imported by any build.
package tools

// Development tools:
//
// mockgen - Generates the port mocks declared in internal/mocks/generate.go
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock v0.6.0 (resolved through go.mod)
