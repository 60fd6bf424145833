package trestle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestClient_ListTickets(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickets" {
			t.Errorf("path = %s, want /tickets", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("status") != "open" || q.Get("page") != "2" || q.Get("per_page") != "10" {
			t.Errorf("query = %s, want status, page and per_page", r.URL.RawQuery)
		}
		io.WriteString(w, `{
			"tickets": [
				{"id": "T-1", "subject": "printer on fire", "status": "open"},
				{"id": "T-2", "subject": "vpn down", "status": "open", "priority": "high"}
			],
			"page": 2,
			"total_count": 12
		}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	list, err := client.ListTickets(context.Background(), ListTicketsOptions{
		Status:  "open",
		Page:    2,
		PerPage: 10,
	})
	if err != nil {
		t.Fatalf("ListTickets() error = %v", err)
	}
	if len(list.Tickets) != 2 {
		t.Fatalf("tickets = %d, want 2", len(list.Tickets))
	}
	if list.Tickets[1].Priority != "high" {
		t.Errorf("Priority = %q, want %q", list.Tickets[1].Priority, "high")
	}
	if list.TotalCount != 12 {
		t.Errorf("TotalCount = %d, want 12", list.TotalCount)
	}
}

func TestClient_ListTickets_ZeroOptionsOmitted(t *testing.T) {
	var gotQuery string
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"tickets": []}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	if _, err := client.ListTickets(context.Background(), ListTicketsOptions{}); err != nil {
		t.Fatalf("ListTickets() error = %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want all zero options omitted", gotQuery)
	}
}

func TestClient_GetTicket(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickets/T-1" {
			t.Errorf("path = %s, want /tickets/T-1", r.URL.Path)
		}
		io.WriteString(w, `{"id": "T-1", "subject": "printer on fire", "status": "open", "tags": ["hardware"]}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	ticket, err := client.GetTicket(context.Background(), "T-1")
	if err != nil {
		t.Fatalf("GetTicket() error = %v", err)
	}
	if ticket.ID != "T-1" || ticket.Subject != "printer on fire" {
		t.Errorf("ticket = %+v, want the backend payload", ticket)
	}
	if len(ticket.Tags) != 1 || ticket.Tags[0] != "hardware" {
		t.Errorf("tags = %v, want [hardware]", ticket.Tags)
	}
}

func TestClient_GetTicket_EscapesID(t *testing.T) {
	var gotPath string
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		io.WriteString(w, `{"id": "x"}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	if _, err := client.GetTicket(context.Background(), "a/b c"); err != nil {
		t.Fatalf("GetTicket() error = %v", err)
	}
	if gotPath != "/tickets/a%2Fb%20c" {
		t.Errorf("path = %q, want the id escaped", gotPath)
	}
}

func TestClient_GetTicket_RequiresID(t *testing.T) {
	var calls int32
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	if _, err := client.GetTicket(context.Background(), ""); err == nil {
		t.Error("GetTicket() expected error for empty id")
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend calls = %d, want 0", n)
	}
}

func TestClient_CreateTicket(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req CreateTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if req.Subject != "vpn down" || req.Priority != "high" {
			t.Errorf("payload = %+v, want the submitted fields", req)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": "T-9", "subject": "vpn down", "status": "open", "priority": "high"}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	ticket, err := client.CreateTicket(context.Background(), CreateTicketRequest{
		Subject:     "vpn down",
		Description: "cannot connect since 9am",
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if ticket.ID != "T-9" {
		t.Errorf("ID = %q, want the created ticket", ticket.ID)
	}
}

func TestClient_CreateTicket_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateTicketRequest
	}{
		{"missing subject", CreateTicketRequest{Description: "details"}},
		{"missing description", CreateTicketRequest{Subject: "subject"}},
	}

	var calls int32
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	client := newTestClient(t, newFakeAuthBackend(), api)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CreateTicket(context.Background(), tt.req); err == nil {
				t.Error("CreateTicket() expected validation error")
			}
		})
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend calls = %d, want 0 for invalid input", n)
	}
}

func TestClient_UpdateTicket(t *testing.T) {
	var gotBody []byte
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if r.URL.Path != "/tickets/T-1" {
			t.Errorf("path = %s, want /tickets/T-1", r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"id": "T-1", "subject": "printer on fire", "status": "solved"}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	ticket, err := client.UpdateTicket(context.Background(), "T-1", UpdateTicketRequest{Status: "solved"})
	if err != nil {
		t.Fatalf("UpdateTicket() error = %v", err)
	}
	if ticket.Status != "solved" {
		t.Errorf("Status = %q, want %q", ticket.Status, "solved")
	}
	// Unset fields stay out of the payload so the backend treats the update
	// as partial.
	if string(gotBody) != `{"status":"solved"}` {
		t.Errorf("payload = %s, want only the changed field", gotBody)
	}
}

func TestClient_UpdateTicket_Validation(t *testing.T) {
	var calls int32
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	client := newTestClient(t, newFakeAuthBackend(), api)

	if _, err := client.UpdateTicket(context.Background(), "", UpdateTicketRequest{Status: "solved"}); err == nil {
		t.Error("UpdateTicket() expected error for empty id")
	}
	if _, err := client.UpdateTicket(context.Background(), "T-1", UpdateTicketRequest{}); err == nil {
		t.Error("UpdateTicket() expected error for empty update")
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend calls = %d, want 0 for invalid input", n)
	}
}

func TestClient_ListComments(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickets/T-1/comments" {
			t.Errorf("path = %s, want /tickets/T-1/comments", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "5" {
			t.Errorf("per_page = %q, want 5", got)
		}
		io.WriteString(w, `{
			"comments": [
				{"id": "C-1", "body": "restarted the spooler", "internal": true},
				{"id": "C-2", "body": "issue persists"}
			]
		}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	list, err := client.ListComments(context.Background(), "T-1", 0, 5)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(list.Comments))
	}
	if !list.Comments[0].Internal {
		t.Error("Internal = false, want true for the first comment")
	}
}

func TestClient_AddComment(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/tickets/T-1/comments" {
			t.Errorf("path = %s, want /tickets/T-1/comments", r.URL.Path)
		}
		var req AddCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if req.Body != "escalating to networking" || !req.Internal {
			t.Errorf("payload = %+v, want the submitted comment", req)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": "C-3", "ticket_id": "T-1", "body": "escalating to networking", "internal": true}`)
	})

	client := newTestClient(t, newFakeAuthBackend(), api)
	comment, err := client.AddComment(context.Background(), "T-1", AddCommentRequest{
		Body:     "escalating to networking",
		Internal: true,
	})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if comment.ID != "C-3" {
		t.Errorf("ID = %q, want the created comment", comment.ID)
	}
}

func TestClient_AddComment_Validation(t *testing.T) {
	var calls int32
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	client := newTestClient(t, newFakeAuthBackend(), api)

	if _, err := client.AddComment(context.Background(), "", AddCommentRequest{Body: "hi"}); err == nil {
		t.Error("AddComment() expected error for empty ticket id")
	}
	if _, err := client.AddComment(context.Background(), "T-1", AddCommentRequest{}); err == nil {
		t.Error("AddComment() expected error for empty body")
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend calls = %d, want 0 for invalid input", n)
	}
}

func TestUpdateTicketRequest_IsEmpty(t *testing.T) {
	if !(UpdateTicketRequest{}).IsEmpty() {
		t.Error("IsEmpty() = false for zero value, want true")
	}
	if (UpdateTicketRequest{Priority: "low"}).IsEmpty() {
		t.Error("IsEmpty() = true with a field set, want false")
	}
}
