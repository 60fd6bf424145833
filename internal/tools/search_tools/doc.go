// Package search_tools provides the MCP tool for cross-entity search.
//
// The single tool, trestle_search, runs a free-text query across tickets,
// comments, and agents, optionally restricted to one entity type.
package search_tools
