package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers
// or backend request paths.

// ExtractUserDomain extracts the domain part from an email address.
// This reduces cardinality by using the domain instead of the full email.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("user@trestle.io")   // "trestle.io"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// NormalizeBackendPath replaces resource identifiers in a Trestle API path
// with a placeholder so every ticket does not become its own metric series.
// Trestle paths alternate collection and identifier segments, so every odd
// segment is an identifier.
//
// Example:
//
//	NormalizeBackendPath("/tickets")                 // "/tickets"
//	NormalizeBackendPath("/tickets/T-123")           // "/tickets/{id}"
//	NormalizeBackendPath("/tickets/T-123/comments")  // "/tickets/{id}/comments"
//	NormalizeBackendPath("/me")                      // "/me"
func NormalizeBackendPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return path
	}

	parts := strings.Split(trimmed, "/")
	for i := 1; i < len(parts); i += 2 {
		parts[i] = "{id}"
	}

	return "/" + strings.Join(parts, "/")
}

// Common operation types for tool audit records.
// Status, session result, and exporter constants are defined in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationSearch = "search"
)
