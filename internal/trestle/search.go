package trestle

import (
	"context"
	"fmt"
	"strconv"
)

// SearchResult is a single hit from a cross-entity search.
type SearchResult struct {
	Type    string `json:"type"` // "ticket", "comment", "agent"
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SearchResults is the full response to a search query.
type SearchResults struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count,omitempty"`
}

// Search runs a cross-entity search. resultType optionally restricts hits to
// a single entity type.
func (c *Client) Search(ctx context.Context, query, resultType string, page, perPage int) (*SearchResults, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	params := map[string]string{
		"q":    query,
		"type": resultType,
	}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}
	if perPage > 0 {
		params["per_page"] = strconv.Itoa(perPage)
	}

	raw, err := c.Call(ctx, "GET", "/search", nil, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results SearchResults
	if err := decode(raw, &results); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return &results, nil
}
