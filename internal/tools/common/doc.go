// Package common provides shared utilities for MCP tool implementations.
// It contains the instrumentation wrapper and session helpers used across
// all tool packages to ensure consistent behavior.
package common
