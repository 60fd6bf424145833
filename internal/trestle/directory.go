package trestle

import (
	"context"
	"fmt"
)

// User is the profile of the authenticated user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Agent is a service desk agent that tickets can be assigned to.
type Agent struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// AgentList is the roster of agents.
type AgentList struct {
	Agents []Agent `json:"agents"`
}

// Me returns the profile of the user the current session belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	raw, err := c.Call(ctx, "GET", "/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	var user User
	if err := decode(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode current user: %w", err)
	}
	return &user, nil
}

// ListAgents lists the agents tickets can be assigned to.
func (c *Client) ListAgents(ctx context.Context) (*AgentList, error) {
	raw, err := c.Call(ctx, "GET", "/agents", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	var list AgentList
	if err := decode(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode agent list: %w", err)
	}
	return &list, nil
}
