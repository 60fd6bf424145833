// Package resources provides MCP resources for exposing session data.
// Resources are read-only data sources that MCP clients can fetch without
// invoking a tool, such as the current backend session status.
package resources
