package api

import (
	"context"
	"net/http"
	"net/url"
)

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.private(ctx, http.MethodGet, "/users/me", nil, &user, KindAuth); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe updates profile fields and returns the new profile.
func (c *Client) UpdateMe(ctx context.Context, fields map[string]any) (*User, error) {
	var user User
	if err := c.private(ctx, http.MethodPut, "/users/me", fields, &user, KindAuth); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers finds users by name, used for starting direct messages.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	var users []User
	path := "/users/search?query=" + url.QueryEscape(query)
	if err := c.private(ctx, http.MethodGet, path, nil, &users, KindFetch); err != nil {
		return nil, err
	}
	return users, nil
}
