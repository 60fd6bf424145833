package common

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

// SessionIdentity returns the identity attached to the current session, or
// "" when nobody is signed in. It never touches the network; tools use it to
// tag metrics and audit records with who ran them.
func SessionIdentity(sc *server.ServerContext) string {
	if sc == nil {
		return ""
	}
	manager := sc.Sessions()
	if manager == nil {
		return ""
	}
	session := manager.Current()
	if session == nil {
		return ""
	}
	return session.Identity
}

// ToolError converts an error into a tool error result, prefixed with a
// short description of what failed. Authentication failures additionally
// carry instructions for establishing a session, so callers can recover
// without digging through server logs.
func ToolError(message string, err error) *mcp.CallToolResult {
	text := fmt.Sprintf("%s: %v", message, err)
	if trestle.IsAuthError(err) {
		text += `

To authenticate, either:

1. Run "trestle-mcp login" to sign in through your browser, or
2. Set TRESTLE_EMAIL and TRESTLE_PASSWORD in the server environment

then retry the tool.`
	}
	return mcp.NewToolResultError(text)
}
