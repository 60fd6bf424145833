package session_tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/tools/common"
)

// RegisterSessionTools registers the session status tool with the MCP
// server.
func RegisterSessionTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authStatusTool := mcp.NewTool("trestle_auth_status",
		mcp.WithDescription("Report the state of the backend session: whether one exists, who it belongs to, and when it expires. Never returns token material."),
	)

	s.AddTool(authStatusTool, common.InstrumentedToolHandler("trestle_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	return nil
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	result, _ := json.MarshalIndent(common.AuthStatusData(sc), "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}
