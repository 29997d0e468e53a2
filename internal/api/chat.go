package api

import (
	"context"
	"fmt"
	"net/http"
)

// ChatHistory returns the recent messages of one conversation, oldest
// first.
func (c *Client) ChatHistory(ctx context.Context, conversationID int) ([]ChatMessage, error) {
	var msgs []ChatMessage
	path := fmt.Sprintf("/chat/%d", conversationID)
	if err := c.private(ctx, http.MethodGet, path, nil, &msgs, KindFetch); err != nil {
		return nil, err
	}
	return msgs, nil
}

// StartDirectMessage gets or creates the DM conversation with the target
// user and returns it as a group record.
func (c *Client) StartDirectMessage(ctx context.Context, targetUserID int) (*Group, error) {
	var group Group
	path := fmt.Sprintf("/chat/dm/%d", targetUserID)
	if err := c.private(ctx, http.MethodPost, path, nil, &group, KindMutation); err != nil {
		return nil, err
	}
	return &group, nil
}

// Conversations returns every group and DM the user belongs to.
func (c *Client) Conversations(ctx context.Context) ([]Group, error) {
	var convs []Group
	if err := c.private(ctx, http.MethodGet, "/chat/conversations", nil, &convs, KindFetch); err != nil {
		return nil, err
	}
	return convs, nil
}
