package common

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func TestSessionIdentity(t *testing.T) {
	t.Run("nil server context", func(t *testing.T) {
		if got := SessionIdentity(nil); got != "" {
			t.Errorf("SessionIdentity(nil) = %q, want empty", got)
		}
	})

	t.Run("empty without a session", func(t *testing.T) {
		sc := testServerContext(t, server.Options{})
		if got := SessionIdentity(sc); got != "" {
			t.Errorf("SessionIdentity() = %q, want empty", got)
		}
	})

	t.Run("identity after adopting persisted session", func(t *testing.T) {
		cfg := testConfig(t)
		now := time.Now()
		store := trestle.NewStore(cfg.SessionFile)
		if err := store.Save(&trestle.Session{
			AccessToken: "tok-1",
			Identity:    "alice@example.com",
			AcquiredAt:  now,
			Expiry:      now.Add(time.Hour),
		}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		sc := testServerContext(t, server.Options{Config: cfg})
		if _, err := sc.Sessions().EnsureValid(context.Background()); err != nil {
			t.Fatalf("EnsureValid() error = %v", err)
		}

		if got := SessionIdentity(sc); got != "alice@example.com" {
			t.Errorf("SessionIdentity() = %q, want %q", got, "alice@example.com")
		}
	})
}

func TestToolError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		result := ToolError("Failed to list tickets", errors.New("boom"))
		if !result.IsError {
			t.Error("expected result.IsError to be true")
		}
		text := resultText(t, result)
		if text != "Failed to list tickets: boom" {
			t.Errorf("ToolError() text = %q, want %q", text, "Failed to list tickets: boom")
		}
	})

	t.Run("auth error includes login instructions", func(t *testing.T) {
		result := ToolError("Failed to list tickets", trestle.ErrNotAuthenticated)
		if !result.IsError {
			t.Error("expected result.IsError to be true")
		}
		text := resultText(t, result)
		if !strings.Contains(text, "not authenticated") {
			t.Errorf("ToolError() text = %q, want the underlying error included", text)
		}
		if !strings.Contains(text, "trestle-mcp login") {
			t.Errorf("ToolError() text = %q, want login instructions included", text)
		}
		if !strings.Contains(text, "TRESTLE_EMAIL") {
			t.Errorf("ToolError() text = %q, want credential env vars mentioned", text)
		}
	})

	t.Run("expired session gets instructions too", func(t *testing.T) {
		text := resultText(t, ToolError("Failed to get ticket", trestle.ErrSessionExpired))
		if !strings.Contains(text, "trestle-mcp login") {
			t.Errorf("ToolError() text = %q, want login instructions included", text)
		}
	})
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}
