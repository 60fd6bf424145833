package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trestlehq/trestle-mcp/internal/instrumentation"
	"github.com/trestlehq/trestle-mcp/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging. Each invocation runs inside its own span, and the outcome
// is recorded whether the handler returns a Go error or a tool error result.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithOperation is like InstrumentedToolHandler but
// also tags the audit record with the operation kind and the resource type
// the tool acts on, so audit consumers can filter on what a tool did rather
// than what it is called.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithOperation("trestle_create_ticket", "create", "ticket", sc, handler))
func InstrumentedToolHandlerWithOperation(
	toolName string,
	operation string,
	resourceType string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return instrumented(toolName, operation, resourceType, sc, handler)
}

func instrumented(
	toolName string,
	operation string,
	resourceType string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		// Nothing to record, skip the bookkeeping.
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		spanCtx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(spanCtx)
		if operation != "" {
			invocation.WithOperation(operation)
		}
		if resourceType != "" {
			invocation.WithResource(resourceType, "")
		}
		identity := SessionIdentity(sc)
		if identity != "" {
			invocation.WithIdentity(identity)
		}

		result, err := handler(spanCtx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
				instrumentation.SetSpanError(span, err)
			} else {
				// The handler reported the failure through the tool result.
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocationWithIdentity(spanCtx, toolName, status, identity, duration)
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
