package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trestlehq/trestle-mcp/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is where the metrics server listens when no
	// address is configured.
	DefaultMetricsAddr = ":9090"

	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of the transport
	// servers.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig configures the Prometheus scrape server.
type MetricsServerConfig struct {
	// Addr is the listen address; empty means DefaultMetricsAddr.
	Addr string

	// Enabled is recorded for the caller's benefit; construction itself
	// only requires an enabled instrumentation provider.
	Enabled bool

	// InstrumentationProvider supplies the prometheus exporter backing
	// /metrics. Required and must be enabled.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves /metrics on its own port, separate from the MCP
// transport, so operational metrics are never exposed on the tool-facing
// surface.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer validates config and builds the server. The listener is
// not bound until Start.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	return &MetricsServer{addr: addr}, nil
}

// Start binds the listener and serves until Shutdown. It blocks; run it in a
// goroutine for non-blocking startup.
func (s *MetricsServer) Start() error {
	return s.serve(nil)
}

// StartWithReadySignal is Start plus a ready channel closed once the
// listener is bound, so callers can fail fast on bind errors instead of
// discovering them at first scrape.
func (s *MetricsServer) StartWithReadySignal(ready chan struct{}) error {
	return s.serve(ready)
}

func (s *MetricsServer) serve(ready chan struct{}) error {
	mux := http.NewServeMux()

	// The otel prometheus exporter feeds the default registry, which
	// promhttp serves.
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.Serve(listener)
}

// Shutdown drains in-flight scrapes and stops the server. A server that was
// never started shuts down cleanly.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}
