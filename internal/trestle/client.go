package trestle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/logging"
)

// RequestObserver is notified after each backend request, for metrics.
type RequestObserver func(ctx context.Context, method, path string, status int, elapsed time.Duration)

// Client is the authenticated request executor. It wraps outbound calls to
// the backend with a fresh bearer token from the session Manager and a
// bounded recovery path for token invalidation discovered mid-flight.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *Manager
	logger     *slog.Logger

	// Observer, when set, is called once per outgoing request (including
	// the replay after a 401 recovery).
	Observer RequestObserver
}

// NewClient creates a Client for the backend at baseURL, authenticating
// through sessions. A nil logger defaults to slog.Default().
func NewClient(baseURL string, sessions *Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
		logger:     logger,
	}
}

// Sessions returns the session manager the client authenticates through.
func (c *Client) Sessions() *Manager {
	return c.sessions
}

// Call performs one backend request with authentication applied.
//
// A non-nil body is serialized as JSON. Query parameters with empty values
// are omitted entirely: the backend may treat an explicit empty parameter
// differently from an absent one. A 2xx response returns the raw body, which
// may be empty (distinct from an empty JSON object). A 401 triggers exactly
// one refresh-or-reauthenticate followed by a single replay of the identical
// request; any other non-2xx status is returned verbatim as an *APIError.
func (c *Client) Call(ctx context.Context, method, path string, body any, query map[string]string) (json.RawMessage, error) {
	token, err := c.sessions.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := c.requestURL(path, query)

	status, respBody, err := c.do(ctx, method, path, target, payload, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		// The token was rejected mid-flight. Recover once and replay the
		// identical request; a second rejection is a hard failure below.
		c.logger.Debug("token rejected, attempting recovery",
			logging.Method(method), logging.Path(path))
		token, err = c.sessions.RefreshOrReauthenticate(ctx)
		if err != nil {
			return nil, err
		}
		status, respBody, err = c.do(ctx, method, path, target, payload, token)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, &APIError{Method: method, Path: path, Status: status, Body: string(respBody)}
	}
	return respBody, nil
}

// requestURL joins the base URL, path, and encoded query. Keys and values
// are URL-encoded; empty values are dropped.
func (c *Client) requestURL(path string, query map[string]string) string {
	target := c.baseURL + path
	if len(query) == 0 {
		return target
	}
	values := url.Values{}
	for key, value := range query {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func (c *Client) do(ctx context.Context, method, path, target string, payload []byte, token string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	elapsed := time.Since(start)

	c.logger.Debug("backend request",
		logging.Method(method),
		logging.Path(path),
		logging.StatusCode(resp.StatusCode),
		slog.Duration(logging.KeyDuration, elapsed))
	if c.Observer != nil {
		c.Observer(ctx, method, path, resp.StatusCode, elapsed)
	}

	return resp.StatusCode, respBody, nil
}

// decode unmarshals a response body into out. An empty body is a valid
// result and leaves out at its zero value.
func decode(body []byte, out any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}
