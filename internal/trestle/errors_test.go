package trestle

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	withBody := &APIError{Method: "GET", Path: "/tickets/T-1", Status: 404, Body: `{"error": "not found"}`}
	want := `trestle GET /tickets/T-1: backend returned 404: {"error": "not found"}`
	if got := withBody.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withoutBody := &APIError{Method: "DELETE", Path: "/tickets/T-1", Status: 500}
	want = "trestle DELETE /tickets/T-1: backend returned 500"
	if got := withoutBody.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not authenticated", ErrNotAuthenticated, true},
		{"rejected", ErrAuthRejected, true},
		{"expired", ErrSessionExpired, true},
		{"wrapped expired", fmt.Errorf("call failed: %w", ErrSessionExpired), true},
		{"api error", &APIError{Status: 500}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}
