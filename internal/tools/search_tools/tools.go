package search_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/tools/common"
)

// RegisterSearchTools registers the cross-entity search tool with the MCP
// server. Search never mutates backend state, so it is available in
// read-only mode too.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("trestle_search",
		mcp.WithDescription("Search tickets, comments, and agents with a free-text query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithString("type",
			mcp.Description("Restrict hits to a single entity type: 'ticket', 'comment', or 'agent'"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number to fetch, starting at 1"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Number of results per page"),
		),
	)

	s.AddTool(searchTool, common.InstrumentedToolHandlerWithOperation("trestle_search", "search", "", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	return nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	resultType := ""
	if v, ok := args["type"].(string); ok {
		resultType = v
	}

	page := 0
	if v, ok := args["page"].(float64); ok {
		page = int(v)
	}
	perPage := 0
	if v, ok := args["perPage"].(float64); ok {
		perPage = int(v)
	}

	results, err := sc.Client().Search(ctx, query, resultType, page, perPage)
	if err != nil {
		return common.ToolError("Failed to search", err), nil
	}

	result, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
