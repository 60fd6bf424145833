package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultHTTPReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultHTTPReadHeaderTimeout = 10 * time.Second

	// DefaultHTTPIdleTimeout is how long idle keep-alive connections are held
	// open. No write timeout is set: MCP responses can stream for longer than
	// any fixed bound.
	DefaultHTTPIdleTimeout = 120 * time.Second
)

// HTTPServer serves the MCP streamable-http transport and the health
// endpoints on a single listener.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	sc         *ServerContext
	addr       string
	httpServer *http.Server
}

// NewHTTPServer creates an HTTP server exposing mcpSrv at /mcp on addr.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, addr string) *HTTPServer {
	return &HTTPServer{
		mcpServer: mcpSrv,
		sc:        sc,
		addr:      addr,
	}
}

// Start starts the HTTP server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *HTTPServer) Start() error {
	return s.serve(nil)
}

// StartWithReadySignal starts the HTTP server and closes ready once the
// listener is bound, so callers can confirm startup before proceeding.
func (s *HTTPServer) StartWithReadySignal(ready chan struct{}) error {
	return s.serve(ready)
}

func (s *HTTPServer) serve(ready chan struct{}) error {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)
	mux.Handle("/mcp", streamable)

	if health := s.sc.Health(); health != nil {
		health.RegisterHealthEndpoints(mux)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultHTTPReadHeaderTimeout,
		IdleTimeout:       DefaultHTTPIdleTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	if ready != nil {
		close(ready)
	}

	slog.Info("starting HTTP server", "addr", s.addr, "endpoint", "/mcp")
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server, draining in-flight
// requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
