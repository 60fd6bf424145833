// Package session_tools provides the MCP tool for inspecting the backend
// session.
//
// The single tool, trestle_auth_status, reports the session lifecycle state
// (valid, stale, or absent), the signed-in identity, the local expiry, and
// whether a refresh credential is held. It never returns token material and
// never performs network traffic.
package session_tools
