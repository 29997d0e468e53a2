package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListPosts returns the posts of one group.
func (c *Client) ListPosts(ctx context.Context, groupID int) ([]Post, error) {
	var posts []Post
	path := fmt.Sprintf("/groups/%d/posts/", groupID)
	if err := c.private(ctx, http.MethodGet, path, nil, &posts, KindFetch); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a post in a group and returns the created record.
func (c *Client) CreatePost(ctx context.Context, groupID int, data PostCreate) (*Post, error) {
	var post Post
	path := fmt.Sprintf("/groups/%d/posts/", groupID)
	if err := c.private(ctx, http.MethodPost, path, data, &post, KindMutation); err != nil {
		return nil, err
	}
	return &post, nil
}
