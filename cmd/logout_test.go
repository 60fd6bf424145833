package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

func TestLogoutCommand_RemovesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("TRESTLE_SESSION_FILE", path)

	now := time.Now()
	store := trestle.NewStore(path)
	err := store.Save(&trestle.Session{
		AccessToken: "tok-1",
		Identity:    "agent@example.com",
		AcquiredAt:  now,
		Expiry:      now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cmd := newLogoutCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("logout command failed: %v", err)
	}

	if !strings.Contains(out.String(), "Signed out") {
		t.Errorf("output = %q, want sign-out confirmation", out.String())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session record still exists after logout")
	}
}

func TestLogoutCommand_NoSession(t *testing.T) {
	t.Setenv("TRESTLE_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	cmd := newLogoutCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("logout command failed: %v", err)
	}
	if !strings.Contains(out.String(), "No stored session") {
		t.Errorf("output = %q, want no-session notice", out.String())
	}
}
