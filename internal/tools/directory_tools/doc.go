// Package directory_tools provides MCP tools for the Trestle user and agent
// directory.
//
// Available tools:
//   - trestle_get_me: Get the profile of the authenticated user
//   - trestle_list_agents: List the agents in the service desk directory
//
// Both tools are read-only and take no arguments.
package directory_tools
