package trestle

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session lifecycle. Tool handlers translate these
// into user-facing messages at the MCP boundary.
var (
	// ErrNotAuthenticated means no usable credential exists anywhere:
	// memory, disk, or ambient configuration.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthRejected means the backend refused the submitted credentials.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrSessionExpired means a refresh attempt was rejected by the backend
	// and the persisted session record has been purged.
	ErrSessionExpired = errors.New("session expired, reauthentication required")

	// ErrNoToken means the backend reported success but no access token
	// could be extracted from the response body.
	ErrNoToken = errors.New("no access token found in authentication response")

	// ErrLoginInProgress means the interactive login listener port is
	// already bound by another login attempt.
	ErrLoginInProgress = errors.New("a login attempt is already in progress")

	// ErrLoginTimeout means no credential submission arrived before the
	// interactive login flow timed out.
	ErrLoginTimeout = errors.New("login timed out waiting for credentials")
)

// APIError is a non-success backend response, passed through verbatim with
// its status and body. No retries are attempted beyond the single 401
// recovery implemented by Client.Call.
type APIError struct {
	// Method and Path identify the failed request.
	Method string
	Path   string

	// Status is the HTTP status code returned by the backend.
	Status int

	// Body is the raw response body.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("trestle %s %s: backend returned %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("trestle %s %s: backend returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsAuthError reports whether err is one of the authentication lifecycle
// failures that the user can fix by logging in again (as opposed to a
// backend request fault).
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAuthRejected) ||
		errors.Is(err, ErrSessionExpired)
}
