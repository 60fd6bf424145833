package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/tools/common"
)

// RegisterSessionResources registers the session status resource. It exposes
// the same secret-free report as the trestle_auth_status tool, for MCP
// clients that prefer reading resources over calling tools.
func RegisterSessionResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sessionResource := mcp.NewResource(
		"trestle://session",
		"Backend Session Status",
		mcp.WithResourceDescription("State of the Trestle backend session: lifecycle, identity, and expiry. Never contains token material."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(sessionResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSessionStatus(ctx, request, sc)
	})

	return nil
}

// handleSessionStatus returns the session lifecycle report as JSON. It never
// performs network traffic.
func handleSessionStatus(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(common.AuthStatusData(sc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session status: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
