package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func TestNewHTTPServer(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer func() { _ = sc.Shutdown(context.Background()) }()

	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	srv := NewHTTPServer(mcpSrv, sc, "127.0.0.1:0")
	if srv == nil {
		t.Fatal("NewHTTPServer() = nil")
	}
}

func TestHTTPServer_StartWithReadySignal(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer func() { _ = sc.Shutdown(context.Background()) }()

	mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	srv := NewHTTPServer(mcpSrv, sc, "127.0.0.1:0")

	ready := make(chan struct{})
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ready:
		// Listener is bound
	case err := <-serverErr:
		t.Fatalf("server failed before ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ready signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Server error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}
}

func TestHTTPServer_ShutdownBeforeStart(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer func() { _ = sc.Shutdown(context.Background()) }()

	srv := NewHTTPServer(nil, sc, "127.0.0.1:0")

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start error = %v", err)
	}
}
