package trestle

import (
	"context"
	"io"
	"net/http"
	"testing"
)

func TestClient_Me(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("path = %s, want /me", r.URL.Path)
		}
		io.WriteString(w, `{"id": "U-1", "email": "alice@example.com", "name": "Alice", "role": "agent"}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want the profile email", user.Email)
	}
	if user.Role != "agent" {
		t.Errorf("Role = %q, want %q", user.Role, "agent")
	}
}

func TestClient_ListAgents(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents" {
			t.Errorf("path = %s, want /agents", r.URL.Path)
		}
		io.WriteString(w, `{
			"agents": [
				{"id": "U-1", "email": "alice@example.com", "active": true},
				{"id": "U-2", "email": "bob@example.com"}
			]
		}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	list, err := client.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents() error = %v", err)
	}
	if len(list.Agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(list.Agents))
	}
	if !list.Agents[0].Active {
		t.Error("Active = false, want true for the first agent")
	}
}
