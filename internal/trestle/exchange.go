package trestle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/logging"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Exchange performs the credential and refresh exchanges against the
// backend's authentication endpoints. It returns raw token material; expiry
// computation and persistence belong to the Manager.
type Exchange struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewExchange creates an Exchange for the backend at baseURL. A nil logger
// defaults to slog.Default().
func NewExchange(baseURL string, logger *slog.Logger) *Exchange {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exchange{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Login exchanges credentials for token material. A non-2xx response yields
// ErrAuthRejected carrying the backend's status and body; transport failures
// are returned as plain errors and do not imply rejection.
func (e *Exchange) Login(ctx context.Context, email, password string) (Extraction, error) {
	return e.post(ctx, "/auth/login", loginRequest{Email: email, Password: password})
}

// Refresh exchanges a refresh credential for fresh token material. A non-2xx
// response yields ErrAuthRejected; the Manager maps that to session expiry.
func (e *Exchange) Refresh(ctx context.Context, refreshToken string) (Extraction, error) {
	return e.post(ctx, "/auth/refresh", refreshRequest{RefreshToken: refreshToken})
}

func (e *Exchange) post(ctx context.Context, path string, payload any) (Extraction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to read auth response: %w", err)
	}

	e.logger.Debug("auth exchange",
		logging.Path(path),
		logging.StatusCode(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Extraction{}, fmt.Errorf("%w (status %d): %s",
			ErrAuthRejected, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return ExtractTokens(respBody)
}
