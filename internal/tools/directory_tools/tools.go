package directory_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/tools/common"
)

// RegisterDirectoryTools registers the user and agent directory tools with
// the MCP server. Directory tools never mutate backend state, so they are
// available in read-only mode too.
func RegisterDirectoryTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Current user profile tool
	getMeTool := mcp.NewTool("trestle_get_me",
		mcp.WithDescription("Get the profile of the authenticated user"),
	)

	s.AddTool(getMeTool, common.InstrumentedToolHandlerWithOperation("trestle_get_me", "get", "user", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMe(ctx, request, sc)
		}))

	// Agent directory tool
	listAgentsTool := mcp.NewTool("trestle_list_agents",
		mcp.WithDescription("List the agents in the service desk directory"),
	)

	s.AddTool(listAgentsTool, common.InstrumentedToolHandlerWithOperation("trestle_list_agents", "list", "agent", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAgents(ctx, request, sc)
		}))

	return nil
}

func handleGetMe(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	me, err := sc.Client().Me(ctx)
	if err != nil {
		return common.ToolError("Failed to get user profile", err), nil
	}

	result, _ := json.MarshalIndent(me, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleListAgents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	agents, err := sc.Client().ListAgents(ctx)
	if err != nil {
		return common.ToolError("Failed to list agents", err), nil
	}

	result, _ := json.MarshalIndent(agents, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
