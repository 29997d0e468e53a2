package api

import (
	"context"
	"net/http"
)

// Login exchanges email and password for a bearer credential. Public
// channel; the returned token is not installed on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.public(ctx, http.MethodPost, "/auth/login", body, &creds, KindAuth); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Signup creates a new account. The caller follows up with Login; the
// signup response alone carries no credential.
func (c *Client) Signup(ctx context.Context, name, email, password string, hobbies []string) error {
	if hobbies == nil {
		hobbies = []string{}
	}
	body := map[string]any{
		"name":     name,
		"email":    email,
		"password": password,
		"hobbies":  hobbies,
	}
	return c.public(ctx, http.MethodPost, "/auth/signup", body, nil, KindAuth)
}
