package api

import (
	"context"
	"net/http"
	"net/url"
)

// Search queries the unified search endpoint across users, groups and
// posts.
func (c *Client) Search(ctx context.Context, query string) (*SearchResults, error) {
	var results SearchResults
	path := "/search/?q=" + url.QueryEscape(query)
	if err := c.private(ctx, http.MethodGet, path, nil, &results, KindFetch); err != nil {
		return nil, err
	}
	return &results, nil
}
