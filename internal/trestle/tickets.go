package trestle

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Ticket represents a Trestle service desk ticket.
type Ticket struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"` // "open", "pending", "solved", "closed"
	Priority    string   `json:"priority,omitempty"`
	AssigneeID  string   `json:"assignee_id,omitempty"`
	RequesterID string   `json:"requester_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// TicketList is a page of tickets.
type TicketList struct {
	Tickets    []Ticket `json:"tickets"`
	Page       int      `json:"page,omitempty"`
	PerPage    int      `json:"per_page,omitempty"`
	TotalCount int      `json:"total_count,omitempty"`
}

// ListTicketsOptions filters and paginates ticket listings. Zero values are
// omitted from the request.
type ListTicketsOptions struct {
	Status   string
	Assignee string
	Priority string
	Query    string
	Page     int
	PerPage  int
}

// CreateTicketRequest is the payload for creating a ticket.
type CreateTicketRequest struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Priority    string   `json:"priority,omitempty"`
	AssigneeID  string   `json:"assignee_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateTicketRequest is the payload for a partial ticket update. Empty
// fields are left untouched by the backend.
type UpdateTicketRequest struct {
	Subject    string `json:"subject,omitempty"`
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	AssigneeID string `json:"assignee_id,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (r UpdateTicketRequest) IsEmpty() bool {
	return r.Subject == "" && r.Status == "" && r.Priority == "" && r.AssigneeID == ""
}

// Comment represents a comment on a ticket.
type Comment struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`
	Body      string `json:"body"`
	Internal  bool   `json:"internal,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CommentList is a page of comments on a ticket.
type CommentList struct {
	Comments   []Comment `json:"comments"`
	Page       int       `json:"page,omitempty"`
	PerPage    int       `json:"per_page,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

// AddCommentRequest is the payload for adding a comment to a ticket.
type AddCommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

// ListTickets lists tickets matching opts.
func (c *Client) ListTickets(ctx context.Context, opts ListTicketsOptions) (*TicketList, error) {
	query := map[string]string{
		"status":   opts.Status,
		"assignee": opts.Assignee,
		"priority": opts.Priority,
		"query":    opts.Query,
	}
	if opts.Page > 0 {
		query["page"] = strconv.Itoa(opts.Page)
	}
	if opts.PerPage > 0 {
		query["per_page"] = strconv.Itoa(opts.PerPage)
	}

	raw, err := c.Call(ctx, "GET", "/tickets", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	var list TicketList
	if err := decode(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode ticket list: %w", err)
	}
	return &list, nil
}

// GetTicket retrieves a single ticket by ID.
func (c *Client) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket id is required")
	}

	raw, err := c.Call(ctx, "GET", "/tickets/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}

	var ticket Ticket
	if err := decode(raw, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}
	return &ticket, nil
}

// CreateTicket creates a new ticket.
func (c *Client) CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	if req.Subject == "" {
		return nil, fmt.Errorf("ticket subject is required")
	}
	if req.Description == "" {
		return nil, fmt.Errorf("ticket description is required")
	}

	raw, err := c.Call(ctx, "POST", "/tickets", req, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	var ticket Ticket
	if err := decode(raw, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode created ticket: %w", err)
	}
	return &ticket, nil
}

// UpdateTicket applies a partial update to an existing ticket.
func (c *Client) UpdateTicket(ctx context.Context, id string, req UpdateTicketRequest) (*Ticket, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket id is required")
	}
	if req.IsEmpty() {
		return nil, fmt.Errorf("ticket update requires at least one field")
	}

	raw, err := c.Call(ctx, "PATCH", "/tickets/"+url.PathEscape(id), req, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket %s: %w", id, err)
	}

	var ticket Ticket
	if err := decode(raw, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode updated ticket: %w", err)
	}
	return &ticket, nil
}

// ListComments lists the comments on a ticket, oldest first.
func (c *Client) ListComments(ctx context.Context, ticketID string, page, perPage int) (*CommentList, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket id is required")
	}

	query := map[string]string{}
	if page > 0 {
		query["page"] = strconv.Itoa(page)
	}
	if perPage > 0 {
		query["per_page"] = strconv.Itoa(perPage)
	}

	raw, err := c.Call(ctx, "GET", "/tickets/"+url.PathEscape(ticketID)+"/comments", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for ticket %s: %w", ticketID, err)
	}

	var list CommentList
	if err := decode(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode comment list: %w", err)
	}
	return &list, nil
}

// AddComment adds a comment to a ticket.
func (c *Client) AddComment(ctx context.Context, ticketID string, req AddCommentRequest) (*Comment, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket id is required")
	}
	if req.Body == "" {
		return nil, fmt.Errorf("comment body is required")
	}

	raw, err := c.Call(ctx, "POST", "/tickets/"+url.PathEscape(ticketID)+"/comments", req, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment to ticket %s: %w", ticketID, err)
	}

	var comment Comment
	if err := decode(raw, &comment); err != nil {
		return nil, fmt.Errorf("failed to decode created comment: %w", err)
	}
	return &comment, nil
}
