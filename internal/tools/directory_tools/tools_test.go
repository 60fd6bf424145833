package directory_tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/trestlehq/trestle-mcp/internal/config"
	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func newTestContext(t *testing.T, backendURL string) *server.ServerContext {
	t.Helper()

	cfg := &config.Config{
		APIURL:        backendURL,
		SessionFile:   filepath.Join(t.TempDir(), "session.json"),
		TokenLifetime: time.Hour,
		ExpiryMargin:  10 * time.Minute,
	}

	now := time.Now()
	if err := trestle.NewStore(cfg.SessionFile).Save(&trestle.Session{
		AccessToken: "test-token",
		Identity:    "agent@example.com",
		AcquiredAt:  now,
		Expiry:      now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	sc, err := server.NewServerContext(context.Background(), server.Options{Config: cfg})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() {
		_ = sc.Shutdown(context.Background())
	})
	return sc
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

func TestRegisterDirectoryTools(t *testing.T) {
	sc := newTestContext(t, "http://127.0.0.1:1")

	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	if err := RegisterDirectoryTools(mcpSrv, sc); err != nil {
		t.Errorf("RegisterDirectoryTools() error = %v", err)
	}
}

func TestHandleGetMe(t *testing.T) {
	var gotPath, gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "u-1", "email": "agent@example.com", "name": "Avery Agent", "role": "agent"}`)
	}))
	defer backend.Close()

	sc := newTestContext(t, backend.URL)

	result, err := handleGetMe(context.Background(), mcp.CallToolRequest{}, sc)
	if err != nil {
		t.Fatalf("handleGetMe() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handleGetMe() returned error result: %s", resultText(t, result))
	}

	if gotPath != "/me" {
		t.Errorf("request path = %q, want %q", gotPath, "/me")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "agent@example.com") || !strings.Contains(text, "Avery Agent") {
		t.Errorf("handleGetMe() output missing profile data: %s", text)
	}
}

func TestHandleListAgents(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"agents": [{"id": "a-1", "email": "sam@example.com", "name": "Sam", "active": true}, {"id": "a-2", "email": "kim@example.com", "name": "Kim"}]}`)
	}))
	defer backend.Close()

	sc := newTestContext(t, backend.URL)

	result, err := handleListAgents(context.Background(), mcp.CallToolRequest{}, sc)
	if err != nil {
		t.Fatalf("handleListAgents() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handleListAgents() returned error result: %s", resultText(t, result))
	}

	if gotPath != "/agents" {
		t.Errorf("request path = %q, want %q", gotPath, "/agents")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "sam@example.com") || !strings.Contains(text, "kim@example.com") {
		t.Errorf("handleListAgents() output missing agent data: %s", text)
	}
}

func TestHandleGetMe_BackendError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer backend.Close()

	sc := newTestContext(t, backend.URL)

	result, err := handleGetMe(context.Background(), mcp.CallToolRequest{}, sc)
	if err != nil {
		t.Fatalf("handleGetMe() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("handleGetMe() result.IsError = false, want true")
	}
	if text := resultText(t, result); !strings.Contains(text, "Failed to get user profile") {
		t.Errorf("error text = %q, want a 'Failed to get user profile' prefix", text)
	}
}
