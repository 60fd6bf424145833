package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func TestWriteSessionStatus_Valid(t *testing.T) {
	now := time.Now()
	status := trestle.SessionStatus{
		State:           trestle.StateValid,
		Identity:        "agent@example.com",
		AcquiredAt:      now.Add(-10 * time.Minute),
		Expiry:          now.Add(40 * time.Minute),
		HasRefreshToken: true,
	}

	var buf bytes.Buffer
	writeSessionStatus(&buf, status, testConfig(t))
	out := buf.String()

	for _, want := range []string{"Authenticated", "agent@example.com", "Expires:", "from now", "Available"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "trestle-mcp login") {
		t.Errorf("valid session should not suggest logging in:\n%s", out)
	}
}

func TestWriteSessionStatus_Absent(t *testing.T) {
	var buf bytes.Buffer
	writeSessionStatus(&buf, trestle.SessionStatus{State: trestle.StateAbsent}, testConfig(t))
	out := buf.String()

	if !strings.Contains(out, "Not authenticated") {
		t.Errorf("output missing absent state:\n%s", out)
	}
	if !strings.Contains(out, "trestle-mcp login") {
		t.Errorf("output missing remedial hint:\n%s", out)
	}
	if strings.Contains(out, "Refresh:") {
		t.Errorf("absent session should not report refresh availability:\n%s", out)
	}
}

func TestWriteSessionStatus_StaleWithoutRefresh(t *testing.T) {
	now := time.Now()
	status := trestle.SessionStatus{
		State:      trestle.StateStale,
		Identity:   "agent@example.com",
		AcquiredAt: now.Add(-2 * time.Hour),
		Expiry:     now.Add(-time.Hour),
	}

	var buf bytes.Buffer
	writeSessionStatus(&buf, status, testConfig(t))
	out := buf.String()

	for _, want := range []string{"Expired", "trestle-mcp login", "Not available"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSessionStatus_StaleWithRefresh(t *testing.T) {
	now := time.Now()
	status := trestle.SessionStatus{
		State:           trestle.StateStale,
		Identity:        "agent@example.com",
		AcquiredAt:      now.Add(-2 * time.Hour),
		Expiry:          now.Add(-time.Hour),
		HasRefreshToken: true,
	}

	var buf bytes.Buffer
	writeSessionStatus(&buf, status, testConfig(t))
	out := buf.String()

	if !strings.Contains(out, "Expired") {
		t.Errorf("output missing stale state:\n%s", out)
	}
	if strings.Contains(out, "trestle-mcp login") {
		t.Errorf("stale session with a refresh credential should not suggest logging in:\n%s", out)
	}
	if !strings.Contains(out, "Available") {
		t.Errorf("output missing refresh availability:\n%s", out)
	}
}

func TestStatusCommand_NoSession(t *testing.T) {
	t.Setenv("TRESTLE_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	cmd := newStatusCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("status command failed: %v", err)
	}
	if !strings.Contains(out.String(), "Not authenticated") {
		t.Errorf("output = %q, want unauthenticated status", out.String())
	}
}
