package ticket_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/tools/batch"
	"github.com/trestlehq/trestle-mcp/internal/tools/common"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

// RegisterTicketTools registers all ticket-related tools with the MCP server.
// Mutating tools are omitted entirely in read-only mode.
func RegisterTicketTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerTicketReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register ticket read tools: %w", err)
	}

	if !readOnly {
		if err := registerTicketWriteTools(s, sc); err != nil {
			return fmt.Errorf("failed to register ticket write tools: %w", err)
		}
	}

	return nil
}

func registerTicketReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List tickets tool
	listTicketsTool := mcp.NewTool("trestle_list_tickets",
		mcp.WithDescription("List tickets with optional filters for status, assignee, priority, and a free-text query"),
		mcp.WithString("status",
			mcp.Description("Filter by ticket status (e.g. 'open', 'pending', 'solved')"),
		),
		mcp.WithString("assignee",
			mcp.Description("Filter by assigned agent ID"),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority (e.g. 'low', 'normal', 'high', 'urgent')"),
		),
		mcp.WithString("query",
			mcp.Description("Free-text search within ticket subjects and descriptions"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number to fetch, starting at 1"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Number of tickets per page"),
		),
	)

	s.AddTool(listTicketsTool, common.InstrumentedToolHandlerWithOperation("trestle_list_tickets", "list", "ticket", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTickets(ctx, request, sc)
		}))

	// Get ticket tool
	getTicketTool := mcp.NewTool("trestle_get_ticket",
		mcp.WithDescription("Get details of a specific ticket"),
		mcp.WithString("ticketId",
			mcp.Required(),
			mcp.Description("The ID of the ticket to retrieve"),
		),
	)

	s.AddTool(getTicketTool, common.InstrumentedToolHandlerWithOperation("trestle_get_ticket", "get", "ticket", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTicket(ctx, request, sc)
		}))

	// List comments tool
	listCommentsTool := mcp.NewTool("trestle_list_comments",
		mcp.WithDescription("List the comments on a ticket, oldest first"),
		mcp.WithString("ticketId",
			mcp.Required(),
			mcp.Description("The ID of the ticket whose comments to list"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number to fetch, starting at 1"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Number of comments per page"),
		),
	)

	s.AddTool(listCommentsTool, common.InstrumentedToolHandlerWithOperation("trestle_list_comments", "list", "comment", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListComments(ctx, request, sc)
		}))

	return nil
}

func registerTicketWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Create ticket tool
	createTicketTool := mcp.NewTool("trestle_create_ticket",
		mcp.WithDescription("Create a new ticket"),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Short summary of the ticket"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Full description of the issue or request"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority of the ticket (e.g. 'low', 'normal', 'high', 'urgent')"),
		),
		mcp.WithString("assignee",
			mcp.Description("ID of the agent to assign the ticket to"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated list of tags to attach to the ticket"),
		),
	)

	s.AddTool(createTicketTool, common.InstrumentedToolHandlerWithOperation("trestle_create_ticket", "create", "ticket", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTicket(ctx, request, sc)
		}))

	// Update ticket tool
	updateTicketTool := mcp.NewTool("trestle_update_ticket",
		mcp.WithDescription("Update the status, priority, assignee, or subject of one or more tickets"),
		mcp.WithString("ticketId",
			mcp.Required(),
			mcp.Description("Ticket ID (string) or array of ticket IDs to apply the same update to"),
		),
		mcp.WithString("status",
			mcp.Description("New status for the ticket"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority for the ticket"),
		),
		mcp.WithString("assignee",
			mcp.Description("ID of the agent to reassign the ticket to"),
		),
		mcp.WithString("subject",
			mcp.Description("New subject for the ticket"),
		),
	)

	s.AddTool(updateTicketTool, common.InstrumentedToolHandlerWithOperation("trestle_update_ticket", "update", "ticket", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTicket(ctx, request, sc)
		}))

	// Add comment tool
	addCommentTool := mcp.NewTool("trestle_add_comment",
		mcp.WithDescription("Add a comment to a ticket"),
		mcp.WithString("ticketId",
			mcp.Required(),
			mcp.Description("The ID of the ticket to comment on"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("The comment text"),
		),
		mcp.WithBoolean("internal",
			mcp.Description("Whether the comment is internal, visible to agents only (default: false)"),
		),
	)

	s.AddTool(addCommentTool, common.InstrumentedToolHandlerWithOperation("trestle_add_comment", "create", "comment", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddComment(ctx, request, sc)
		}))

	return nil
}

func handleListTickets(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	opts := trestle.ListTicketsOptions{}
	if v, ok := args["status"].(string); ok {
		opts.Status = v
	}
	if v, ok := args["assignee"].(string); ok {
		opts.Assignee = v
	}
	if v, ok := args["priority"].(string); ok {
		opts.Priority = v
	}
	if v, ok := args["query"].(string); ok {
		opts.Query = v
	}
	if v, ok := args["page"].(float64); ok {
		opts.Page = int(v)
	}
	if v, ok := args["perPage"].(float64); ok {
		opts.PerPage = int(v)
	}

	tickets, err := sc.Client().ListTickets(ctx, opts)
	if err != nil {
		return common.ToolError("Failed to list tickets", err), nil
	}

	result, _ := json.MarshalIndent(tickets, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleGetTicket(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	ticketID, ok := args["ticketId"].(string)
	if !ok || ticketID == "" {
		return mcp.NewToolResultError("ticketId is required"), nil
	}

	ticket, err := sc.Client().GetTicket(ctx, ticketID)
	if err != nil {
		return common.ToolError("Failed to get ticket", err), nil
	}

	result, _ := json.MarshalIndent(ticket, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleListComments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	ticketID, ok := args["ticketId"].(string)
	if !ok || ticketID == "" {
		return mcp.NewToolResultError("ticketId is required"), nil
	}

	page := 0
	if v, ok := args["page"].(float64); ok {
		page = int(v)
	}
	perPage := 0
	if v, ok := args["perPage"].(float64); ok {
		perPage = int(v)
	}

	comments, err := sc.Client().ListComments(ctx, ticketID, page, perPage)
	if err != nil {
		return common.ToolError("Failed to list comments", err), nil
	}

	result, _ := json.MarshalIndent(comments, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleCreateTicket(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}

	description, ok := args["description"].(string)
	if !ok || description == "" {
		return mcp.NewToolResultError("description is required"), nil
	}

	req := trestle.CreateTicketRequest{
		Subject:     subject,
		Description: description,
	}
	if v, ok := args["priority"].(string); ok {
		req.Priority = v
	}
	if v, ok := args["assignee"].(string); ok {
		req.AssigneeID = v
	}
	if v, ok := args["tags"].(string); ok {
		req.Tags = parseTags(v)
	}

	ticket, err := sc.Client().CreateTicket(ctx, req)
	if err != nil {
		return common.ToolError("Failed to create ticket", err), nil
	}

	result, _ := json.MarshalIndent(ticket, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Ticket created successfully:\n%s", string(result))), nil
}

func handleUpdateTicket(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	// Parse ticketId - can be string or array
	ticketIDs, err := batch.ParseStringOrArray(args["ticketId"], "ticketId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := trestle.UpdateTicketRequest{}
	if v, ok := args["subject"].(string); ok {
		req.Subject = v
	}
	if v, ok := args["status"].(string); ok {
		req.Status = v
	}
	if v, ok := args["priority"].(string); ok {
		req.Priority = v
	}
	if v, ok := args["assignee"].(string); ok {
		req.AssigneeID = v
	}

	if req.IsEmpty() {
		return mcp.NewToolResultError("at least one of status, priority, assignee, or subject is required"), nil
	}

	if len(ticketIDs) == 1 {
		ticket, err := sc.Client().UpdateTicket(ctx, ticketIDs[0], req)
		if err != nil {
			return common.ToolError("Failed to update ticket", err), nil
		}

		result, _ := json.MarshalIndent(ticket, "", "  ")
		return mcp.NewToolResultText(fmt.Sprintf("Ticket updated successfully:\n%s", string(result))), nil
	}

	results := batch.ProcessBatch(ctx, ticketIDs, func(ticketID string) (string, error) {
		if _, err := sc.Client().UpdateTicket(ctx, ticketID, req); err != nil {
			return "", err
		}
		return fmt.Sprintf("Ticket %s updated successfully", ticketID), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleAddComment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	ticketID, ok := args["ticketId"].(string)
	if !ok || ticketID == "" {
		return mcp.NewToolResultError("ticketId is required"), nil
	}

	body, ok := args["body"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	req := trestle.AddCommentRequest{Body: body}
	if v, ok := args["internal"].(bool); ok {
		req.Internal = v
	}

	comment, err := sc.Client().AddComment(ctx, ticketID, req)
	if err != nil {
		return common.ToolError("Failed to add comment", err), nil
	}

	result, _ := json.MarshalIndent(comment, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Comment added successfully:\n%s", string(result))), nil
}

// parseTags parses a comma-separated list of tags
func parseTags(tagsStr string) []string {
	if tagsStr == "" {
		return nil
	}

	var tags []string
	for _, tag := range strings.Split(tagsStr, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
