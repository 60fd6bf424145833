// Package trestle implements the session lifecycle and authenticated request
// execution for the Trestle service-desk API.
//
// The Manager owns the single per-process Session: acquisition (password or
// browser-assisted login), in-memory caching, on-disk persistence, expiry
// detection, and refresh-or-reauthenticate recovery. The Client wraps
// outbound REST calls with the Manager's guarantee of a fresh bearer token
// and a single 401 recovery.
//
// The Authenticator interface decouples how credentials are obtained (ambient
// configuration vs. interactive browser flow) from the exchange and
// persistence mechanics, so the same Manager serves both the MCP server and
// the CLI login command.
package trestle
