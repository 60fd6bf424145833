package trestle

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/trestlehq/trestle-mcp/internal/logging"
)

//go:embed templates/login.html
var loginFormHTML string

//go:embed templates/login_success.html
var loginSuccessHTML string

//go:embed templates/login_error.html
var loginErrorHTML string

var (
	loginFormTmpl    = template.Must(template.New("login").Parse(loginFormHTML))
	loginSuccessTmpl = template.Must(template.New("success").Parse(loginSuccessHTML))
	loginErrorTmpl   = template.Must(template.New("error").Parse(loginErrorHTML))
)

// LoginServer is the short-lived loopback listener for the interactive login
// flow. It serves a credential form, accepts a single submission, exchanges
// it through the acquire callback, responds to the browser, and shuts down
// after a short grace delay.
type LoginServer struct {
	addr    string
	timeout time.Duration
	acquire AcquireFunc
	logger  logging.Logger

	// flowID ties submissions to this flow; a stale form from an earlier
	// attempt is rejected without consuming the single submission.
	flowID string

	flowCtx  context.Context
	server   *http.Server
	listener net.Listener
	once     sync.Once
	resultCh chan *Session
	errCh    chan error
}

// NewLoginServer creates a login server bound to addr (loopback only) that
// exchanges the submitted credentials through acquire. Zero values fall back
// to DefaultLoginAddr and DefaultLoginTimeout.
func NewLoginServer(addr string, timeout time.Duration, acquire AcquireFunc, logger logging.Logger) *LoginServer {
	if addr == "" {
		addr = DefaultLoginAddr
	}
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &LoginServer{
		addr:     addr,
		timeout:  timeout,
		acquire:  acquire,
		logger:   logger,
		flowID:   uuid.NewString(),
		resultCh: make(chan *Session, 1),
		errCh:    make(chan error, 1),
	}
}

// Start binds the listener and begins serving the login form. It returns the
// URL to open in a browser. A port already bound by another login attempt
// yields ErrLoginInProgress.
func (s *LoginServer) Start(ctx context.Context) (string, error) {
	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return "", fmt.Errorf("invalid login listener address %s: %w", s.addr, err)
	}
	if !isLoopbackHost(host) {
		return "", fmt.Errorf("login listener address %s is not a loopback address", s.addr)
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return "", fmt.Errorf("%w: %s is already bound", ErrLoginInProgress, s.addr)
		}
		return "", fmt.Errorf("failed to start login listener on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.flowCtx = ctx

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleForm)
	mux.HandleFunc("/submit", s.handleSubmit)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	url := fmt.Sprintf("http://%s/", listener.Addr())
	s.logger.Info("login listener started", "url", url)
	return url, nil
}

// Wait blocks until a submission resolves the flow, the timeout elapses, or
// ctx is cancelled.
func (s *LoginServer) Wait(ctx context.Context) (*Session, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case session := <-s.resultCh:
		// The grace-delay goroutine scheduled by the handler stops the
		// server once the browser has its response.
		return session, nil
	case err := <-s.errCh:
		s.Stop()
		return nil, err
	case <-timer.C:
		s.Stop()
		return nil, ErrLoginTimeout
	case <-ctx.Done():
		s.Stop()
		return nil, ctx.Err()
	}
}

// URL returns the address serving the login form. Only meaningful after
// Start has succeeded.
func (s *LoginServer) URL() string {
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/", s.listener.Addr())
}

// Stop shuts the listener down. Safe to call more than once.
func (s *LoginServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *LoginServer) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderForm(w, "")
}

func (s *LoginServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("flow") != s.flowID {
		http.Error(w, "stale login form, restart the login flow", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		// An incomplete form does not consume the single submission.
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderForm(w, "Email and password are both required.")
		return
	}

	handled := false
	s.once.Do(func() {
		handled = true
		s.processSubmission(w, email, password)
	})
	if !handled {
		http.Error(w, "login already completed", http.StatusConflict)
	}
}

// processSubmission runs exactly once per flow.
func (s *LoginServer) processSubmission(w http.ResponseWriter, email, password string) {
	setSecurityHeaders(w)

	// The flow context, not the request context: a closed browser tab must
	// not abort an exchange that is already in flight.
	session, err := s.acquire(s.flowCtx, email, password)
	if err != nil {
		s.logger.Warn("login submission rejected", logging.KeyError, err.Error())
		s.renderResult(w, loginErrorTmpl, map[string]string{"Error": userFacingLoginError(err)})
		select {
		case s.errCh <- err:
		default:
		}
	} else {
		s.logger.Info("login submission accepted")
		s.renderResult(w, loginSuccessTmpl, map[string]string{"Identity": session.Identity})
		select {
		case s.resultCh <- session:
		default:
		}
	}

	// Give the browser time to receive the response before shutdown.
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

func (s *LoginServer) renderForm(w http.ResponseWriter, errMsg string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]string{"FlowID": s.flowID, "Error": errMsg}
	if err := loginFormTmpl.Execute(w, data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *LoginServer) renderResult(w http.ResponseWriter, tmpl *template.Template, data map[string]string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// isLoopbackHost reports whether host names the local machine only. The
// credential form must never be reachable from another host.
func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}

// userFacingLoginError keeps backend detail out of the browser page while
// staying actionable.
func userFacingLoginError(err error) string {
	switch {
	case errors.Is(err, ErrAuthRejected):
		return "The backend rejected these credentials."
	case errors.Is(err, ErrNoToken):
		return "The backend accepted the credentials but returned no usable token."
	default:
		return "The login could not be completed."
	}
}

// Interactive is an Authenticator that runs the browser-based login flow: it
// binds the loopback listener, opens the system browser, and waits for a
// single credential submission.
type Interactive struct {
	// Addr and Timeout configure the listener; zero values use the
	// defaults.
	Addr    string
	Timeout time.Duration

	// OpenBrowser opens the login URL; nil uses the system default opener.
	// A failure to open is not fatal, the URL is also reported via OnURL.
	OpenBrowser func(url string) error

	// OnURL, when set, is called with the login URL once the listener is
	// up, so CLI frontends can display it.
	OnURL func(url string)

	// Logger defaults to the slog-backed adapter.
	Logger logging.Logger
}

// Authenticate implements Authenticator.
func (i *Interactive) Authenticate(ctx context.Context, acquire AcquireFunc) (*Session, error) {
	logger := i.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	srv := NewLoginServer(i.Addr, i.Timeout, acquire, logger)
	url, err := srv.Start(ctx)
	if err != nil {
		return nil, err
	}

	if i.OnURL != nil {
		i.OnURL(url)
	}

	open := i.OpenBrowser
	if open == nil {
		open = OpenBrowser
	}
	if err := open(url); err != nil {
		logger.Warn("could not open browser, open the URL manually",
			"url", url, logging.KeyError, err.Error())
	}

	return srv.Wait(ctx)
}
