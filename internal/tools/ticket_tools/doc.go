// Package ticket_tools provides MCP tools for working with Trestle tickets.
//
// This package exposes ticket functionality through MCP (Model Context
// Protocol) tools that can be called by AI agents or other MCP clients.
//
// # Available Tools
//
// Read tools (always registered):
//   - trestle_list_tickets: List tickets with optional filters
//   - trestle_get_ticket: Get details of a specific ticket
//   - trestle_list_comments: List the comments on a ticket
//
// Write tools (omitted in read-only mode):
//   - trestle_create_ticket: Create a new ticket
//   - trestle_update_ticket: Update a ticket's status, priority, assignee, or subject
//   - trestle_add_comment: Add a comment to a ticket
//
// # Authentication
//
// All tools go through the shared backend client, which attaches a bearer
// token from the session manager and transparently refreshes or
// reauthenticates when the token has gone stale. When no session can be
// established, tools return an error result with instructions for signing in.
package ticket_tools
