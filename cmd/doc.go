// Package cmd implements the command-line interface for trestle-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing Trestle helpdesk tools
//   - login: Sign in to the Trestle backend and persist the session
//   - logout: Delete the persisted session record
//   - status: Show the stored session status
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
