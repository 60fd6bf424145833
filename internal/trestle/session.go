package trestle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/logging"
)

// Defaults for the session lifecycle. The backend does not report a token
// lifetime, so the expiry is computed locally from an assumed lifetime minus
// a safety margin. Both are configurable.
const (
	DefaultBaseURL       = "https://api.trestle.io/v1"
	DefaultTokenLifetime = time.Hour
	DefaultExpiryMargin  = 10 * time.Minute
	DefaultLoginAddr     = "127.0.0.1:8357"
	DefaultLoginTimeout  = 5 * time.Minute
)

// Session is the credential state for one principal against one backend.
// It is exclusively owned by the Manager; other components read snapshots
// through Manager accessors and never mutate it directly.
type Session struct {
	// AccessToken is the bearer credential presented on each request.
	AccessToken string `json:"access_token"`

	// RefreshToken renews the access token without re-entering a password.
	// Not always issued by the backend.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Identity is the logged-in principal's identifier (the login email).
	Identity string `json:"identity,omitempty"`

	// AcquiredAt is when the token material was obtained.
	AcquiredAt time.Time `json:"acquired_at"`

	// Expiry is computed locally at acquisition time as AcquiredAt plus the
	// assumed token lifetime minus the safety margin.
	Expiry time.Time `json:"expiry"`
}

// Valid reports whether the session holds a token still inside its local
// expiry window.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.Expiry)
}

// Stale reports whether the session holds a token past its expiry window.
// The backend may still accept it, but it is treated as unusable without a
// refresh first.
func (s *Session) Stale(now time.Time) bool {
	return s != nil && s.AccessToken != "" && !now.Before(s.Expiry)
}

// clone returns a copy so callers cannot mutate the Manager's state.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// AcquireFunc exchanges user credentials for a fresh, persisted session.
// The Manager supplies one to Authenticator implementations.
type AcquireFunc func(ctx context.Context, email, password string) (*Session, error)

// Authenticator drives a full login when no usable session exists.
// Implementations decide how credentials are obtained: ambient configuration,
// an interactive browser flow, or a terminal prompt. The session must be
// obtained through the supplied acquire callback so the Manager can persist
// and cache it.
type Authenticator interface {
	Authenticate(ctx context.Context, acquire AcquireFunc) (*Session, error)
}

// Ambient authenticates with pre-shared credentials from configuration, for
// non-interactive environments.
type Ambient struct {
	Email    string
	Password string
}

// Authenticate implements Authenticator.
func (a *Ambient) Authenticate(ctx context.Context, acquire AcquireFunc) (*Session, error) {
	if a.Email == "" || a.Password == "" {
		return nil, fmt.Errorf("%w: set TRESTLE_EMAIL and TRESTLE_PASSWORD, or run \"trestle-mcp login\"", ErrNotAuthenticated)
	}
	return acquire(ctx, a.Email, a.Password)
}

// SessionObserver is notified after each session lifecycle operation, for
// metrics. Operations are "acquire", "refresh", "adopt" and "logout".
type SessionObserver func(ctx context.Context, operation string, err error)

// Manager owns the session lifecycle: acquisition, in-memory caching, on-disk
// persistence, expiry detection, and refresh-or-reauthenticate recovery.
//
// All transitions are serialized by an internal mutex, so concurrent tool
// calls observing a stale session trigger one refresh rather than a
// thundering herd.
type Manager struct {
	mu      sync.Mutex
	session *Session

	store    *Store
	exchange *Exchange
	auth     Authenticator

	lifetime time.Duration
	margin   time.Duration

	logger   *slog.Logger
	now      func() time.Time
	observer SessionObserver
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAuthenticator sets the acquisition strategy used when no stored
// session or refresh credential can produce a token.
func WithAuthenticator(a Authenticator) ManagerOption {
	return func(m *Manager) { m.auth = a }
}

// WithLifetime overrides the assumed backend token lifetime and the safety
// margin subtracted from it when computing the local expiry.
func WithLifetime(lifetime, margin time.Duration) ManagerOption {
	return func(m *Manager) {
		if lifetime > 0 {
			m.lifetime = lifetime
		}
		if margin > 0 {
			m.margin = margin
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNow sets the clock, for tests.
func WithNow(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSessionObserver registers a lifecycle observer.
func WithSessionObserver(observer SessionObserver) ManagerOption {
	return func(m *Manager) { m.observer = observer }
}

// NewManager creates a session manager persisting through store and
// exchanging credentials through exchange.
func NewManager(store *Store, exchange *Exchange, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		exchange: exchange,
		lifetime: DefaultTokenLifetime,
		margin:   DefaultExpiryMargin,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid guarantees a valid in-memory session and returns its bearer
// token. Resolution order: in-memory session, persisted record, refresh
// exchange, full acquisition through the configured strategy.
func (m *Manager) EnsureValid(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureValidLocked(ctx)
}

func (m *Manager) ensureValidLocked(ctx context.Context) (string, error) {
	now := m.now()

	// A valid in-memory session needs no I/O.
	if m.session.Valid(now) {
		return m.session.AccessToken, nil
	}

	// A persisted record still inside its expiry window is adopted
	// verbatim. Tool invocations may arrive in a fresh process; this avoids
	// a redundant network round trip after every restart.
	record, err := m.store.Load()
	if err != nil {
		m.logger.Warn("ignoring unreadable session record", logging.Err(err))
	}
	if record.Valid(now) {
		m.session = record
		m.observe(ctx, "adopt", nil)
		m.logger.Debug("adopted persisted session",
			logging.UserHash(record.Identity),
			slog.Time("expiry", record.Expiry))
		return m.session.AccessToken, nil
	}
	if record != nil && m.session == nil {
		// A stale record still carries the refresh credential and the
		// identity label needed for recovery.
		m.session = record
	}

	// A held refresh credential may recover the session without
	// re-entering credentials.
	if m.session != nil && m.session.RefreshToken != "" {
		return m.refreshLocked(ctx)
	}

	// Fall back to a full acquisition.
	return m.authenticateLocked(ctx)
}

// RefreshOrReauthenticate forces a token renewal after the backend signalled
// that the current token is no longer accepted. It prefers the refresh
// exchange and falls back to a full acquisition when no refresh credential
// is held.
func (m *Manager) RefreshOrReauthenticate(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	if m.session == nil || m.session.RefreshToken == "" {
		return m.authenticateLocked(ctx)
	}

	prev := m.session
	ex, err := m.exchange.Refresh(ctx, prev.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrAuthRejected) {
			// The backend rejected the credential. Purge memory and disk so
			// a future process cannot mistake the record for a usable
			// session.
			m.session = nil
			if clearErr := m.store.Clear(); clearErr != nil {
				m.logger.Warn("failed to clear session record", logging.Err(clearErr))
			}
			m.observe(ctx, "refresh", err)
			m.logger.Info("session expired beyond recovery", logging.UserHash(prev.Identity))
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		// Transport-level failure: keep the session and record, the next
		// attempt may succeed.
		m.observe(ctx, "refresh", err)
		return "", fmt.Errorf("refresh failed: %w", err)
	}

	now := m.now()
	session := &Session{
		AccessToken:  ex.AccessToken,
		RefreshToken: ex.RefreshToken,
		Identity:     prev.Identity,
		AcquiredAt:   now,
		Expiry:       now.Add(m.lifetime - m.margin),
	}
	if session.RefreshToken == "" {
		// The backend did not rotate the refresh credential; keep the
		// previous one rather than stranding the session on next expiry.
		session.RefreshToken = prev.RefreshToken
	}
	if session.Identity == "" {
		// An identity label is never silently dropped on refresh: fall
		// back to the persisted record when memory never captured one.
		if record, loadErr := m.store.Load(); loadErr == nil && record != nil {
			session.Identity = record.Identity
		}
	}

	if err := m.store.Save(session); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	m.session = session
	m.observe(ctx, "refresh", nil)
	m.logger.Info("session refreshed",
		logging.UserHash(session.Identity),
		slog.Time("expiry", session.Expiry),
		slog.Bool("refresh_token_rotated", ex.RefreshToken != ""))
	return session.AccessToken, nil
}

func (m *Manager) authenticateLocked(ctx context.Context) (string, error) {
	if m.auth == nil {
		return "", fmt.Errorf("%w: no stored session and no credentials configured (run \"trestle-mcp login\")", ErrNotAuthenticated)
	}
	session, err := m.auth.Authenticate(ctx, m.acquireLocked)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// acquireLocked performs a full login exchange and persists the result.
// It is the AcquireFunc handed to Authenticator implementations; m.mu is
// held by the exported entry points for the duration of the flow.
func (m *Manager) acquireLocked(ctx context.Context, email, password string) (*Session, error) {
	ex, err := m.exchange.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrAuthRejected) {
			// A rejected login leaves the session absent.
			m.session = nil
		}
		m.observe(ctx, "acquire", err)
		return nil, err
	}

	now := m.now()
	session := &Session{
		AccessToken:  ex.AccessToken,
		RefreshToken: ex.RefreshToken,
		Identity:     email,
		AcquiredAt:   now,
		Expiry:       now.Add(m.lifetime - m.margin),
	}
	if err := m.store.Save(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.session = session
	m.observe(ctx, "acquire", nil)
	m.logger.Info("session acquired",
		logging.UserHash(email),
		logging.Domain(email),
		slog.Time("expiry", session.Expiry),
		slog.Bool("has_refresh_token", session.RefreshToken != ""))
	return session.clone(), nil
}

// Login performs a full acquisition with explicit credentials, bypassing any
// configured strategy. Used by the CLI login paths.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireLocked(ctx, email, password)
}

// Authenticate runs the configured acquisition strategy and returns the
// resulting session snapshot.
func (m *Manager) Authenticate(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auth == nil {
		return nil, fmt.Errorf("%w: no acquisition strategy configured", ErrNotAuthenticated)
	}
	return m.auth.Authenticate(ctx, m.acquireLocked)
}

// Logout clears the in-memory session and deletes the persisted record.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity := ""
	if m.session != nil {
		identity = m.session.Identity
	}
	m.session = nil
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.observe(ctx, "logout", nil)
	m.logger.Info("session cleared", logging.UserHash(identity))
	return nil
}

// Current returns a snapshot of the known session without network traffic:
// the in-memory session, or the persisted record when none is cached yet.
// Returns nil when neither exists.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session.clone()
	}
	record, err := m.store.Load()
	if err != nil {
		return nil
	}
	return record
}

// Session states reported by Status.
const (
	StateValid  = "valid"
	StateStale  = "stale"
	StateAbsent = "absent"
)

// SessionStatus is a secret-free snapshot of the session lifecycle state for
// status surfaces: it reports whether token material exists, never the
// material itself.
type SessionStatus struct {
	State           string
	Identity        string
	AcquiredAt      time.Time
	Expiry          time.Time
	HasRefreshToken bool
}

// Status reports the session lifecycle state without network traffic.
func (m *Manager) Status() SessionStatus {
	session := m.Current()
	now := m.now()

	status := SessionStatus{
		State: StateAbsent,
	}
	switch {
	case session.Valid(now):
		status.State = StateValid
	case session.Stale(now):
		status.State = StateStale
	default:
		// No session, or a record without token material.
		return status
	}

	status.Identity = session.Identity
	status.AcquiredAt = session.AcquiredAt
	status.Expiry = session.Expiry
	status.HasRefreshToken = session.RefreshToken != ""
	return status
}

func (m *Manager) observe(ctx context.Context, operation string, err error) {
	if m.observer != nil {
		m.observer(ctx, operation, err)
	}
}
