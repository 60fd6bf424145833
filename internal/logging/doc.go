// Package logging provides structured logging utilities for the trestle-mcp application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (identity anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "tickets.list")
//	logger.Info("listing tickets",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session refreshed",
//	    logging.UserHash(session.Identity))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Principal identifiers are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
