package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/config"
	"github.com/trestlehq/trestle-mcp/internal/instrumentation"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

// Options configures a ServerContext.
type Options struct {
	// Config is the resolved runtime configuration. Required.
	Config *config.Config

	// Logger receives structured server logs. Defaults to slog.Default().
	Logger *slog.Logger

	// ReadOnly suppresses registration of tools that mutate backend state.
	ReadOnly bool

	// Authenticator is the acquisition strategy used when no stored session
	// or refresh credential can produce a token. Optional; without one,
	// tool calls on an absent session fail with a remedial message.
	Authenticator trestle.Authenticator

	// Instrumentation provides metrics and tracing. Optional.
	Instrumentation *instrumentation.Provider

	// AuditLogging configures the audit trail for tool invocations.
	AuditLogging instrumentation.AuditLoggingConfig
}

// ServerContext holds the shared dependencies of the MCP server: the session
// manager, the authenticated backend client, and the observability plumbing
// that ties the two to the instrumentation package.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	logger *slog.Logger

	sessions *trestle.Manager
	client   *trestle.Client

	provider    *instrumentation.Provider
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	health      *HealthChecker

	readOnly bool

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context and wires the session
// manager's lifecycle events and the client's request outcomes into the
// metrics recorder.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		cfg:      opts.Config,
		logger:   logger,
		provider: opts.Instrumentation,
		readOnly: opts.ReadOnly,
	}

	if opts.Instrumentation != nil && opts.Instrumentation.Enabled() {
		sc.metrics = opts.Instrumentation.Metrics()
	}
	sc.auditLogger = instrumentation.NewAuditLoggerWithConfig(logger, opts.AuditLogging)

	store := trestle.NewStore(opts.Config.SessionPath())
	exchange := trestle.NewExchange(opts.Config.APIURL, logger)

	managerOpts := []trestle.ManagerOption{
		trestle.WithLogger(logger),
		trestle.WithLifetime(opts.Config.TokenLifetime, opts.Config.ExpiryMargin),
	}
	if opts.Authenticator != nil {
		managerOpts = append(managerOpts, trestle.WithAuthenticator(opts.Authenticator))
	}
	if sc.metrics != nil {
		managerOpts = append(managerOpts, trestle.WithSessionObserver(sc.observeSession))
	}
	sc.sessions = trestle.NewManager(store, exchange, managerOpts...)

	sc.client = trestle.NewClient(opts.Config.APIURL, sc.sessions, logger)
	if sc.metrics != nil {
		sc.client.Observer = sc.observeBackendRequest
	}

	sc.health = NewHealthChecker(sc)

	return sc, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the resolved runtime configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Sessions returns the session manager.
func (sc *ServerContext) Sessions() *trestle.Manager {
	return sc.sessions
}

// Client returns the authenticated backend client.
func (sc *ServerContext) Client() *trestle.Client {
	return sc.client
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger for tool invocations.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Health returns the health checker.
func (sc *ServerContext) Health() *HealthChecker {
	return sc.health
}

// ReadOnly reports whether mutating tools are suppressed.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// observeSession translates session lifecycle events into metrics. The
// active_sessions gauge counts one per authenticated session: up on
// acquisition or adoption, down on expiry or logout.
func (sc *ServerContext) observeSession(ctx context.Context, operation string, err error) {
	switch operation {
	case "acquire":
		if err != nil {
			sc.metrics.RecordSessionAcquisition(ctx, instrumentation.SessionResultFailure)
			return
		}
		sc.metrics.RecordSessionAcquisition(ctx, instrumentation.SessionResultSuccess)
		sc.metrics.IncrementActiveSessions(ctx)
	case "refresh":
		switch {
		case err == nil:
			sc.metrics.RecordSessionRefresh(ctx, instrumentation.SessionResultSuccess)
		case errors.Is(err, trestle.ErrAuthRejected):
			// The refresh credential is dead and the record was purged.
			sc.metrics.RecordSessionRefresh(ctx, instrumentation.SessionResultExpired)
			sc.metrics.DecrementActiveSessions(ctx)
		default:
			sc.metrics.RecordSessionRefresh(ctx, instrumentation.SessionResultFailure)
		}
	case "adopt":
		if err == nil {
			sc.metrics.IncrementActiveSessions(ctx)
		}
	case "logout":
		sc.metrics.DecrementActiveSessions(ctx)
	}
}

// observeBackendRequest records the outcome of a backend API request.
func (sc *ServerContext) observeBackendRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	sc.metrics.RecordBackendRequest(ctx, method, path, status, elapsed)
}

// Authenticated reports whether a session is known, without network traffic.
func (sc *ServerContext) Authenticated() bool {
	return sc.sessions.Current() != nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.cancel()

	if sc.provider != nil {
		if err := sc.provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down instrumentation: %w", err)
		}
	}
	return nil
}
