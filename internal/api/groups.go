package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListGroups returns all discoverable groups.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := c.private(ctx, http.MethodGet, "/groups/", nil, &groups, KindFetch); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup returns a single group by id.
func (c *Client) GetGroup(ctx context.Context, groupID int) (*Group, error) {
	var group Group
	path := fmt.Sprintf("/groups/%d", groupID)
	if err := c.private(ctx, http.MethodGet, path, nil, &group, KindFetch); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup creates a new group and returns it.
func (c *Client) CreateGroup(ctx context.Context, data GroupCreate) (*Group, error) {
	var group Group
	if err := c.private(ctx, http.MethodPost, "/groups/", data, &group, KindMutation); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroup edits a group (including admin/creator transfer) and
// returns the updated record.
func (c *Client) UpdateGroup(ctx context.Context, groupID int, data GroupCreate) (*Group, error) {
	var group Group
	path := fmt.Sprintf("/groups/%d", groupID)
	if err := c.private(ctx, http.MethodPut, path, data, &group, KindMutation); err != nil {
		return nil, err
	}
	return &group, nil
}

// JoinGroup adds the authenticated user to a group.
func (c *Client) JoinGroup(ctx context.Context, groupID int) (*Membership, error) {
	var m Membership
	path := fmt.Sprintf("/memberships/join?group_id=%d", groupID)
	if err := c.private(ctx, http.MethodPost, path, nil, &m, KindMutation); err != nil {
		return nil, err
	}
	return &m, nil
}

// LeaveGroup removes the authenticated user from a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID int) error {
	path := fmt.Sprintf("/memberships/leave?group_id=%d", groupID)
	return c.private(ctx, http.MethodPost, path, nil, nil, KindMutation)
}

// GroupMembers returns the member profiles of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID int) ([]User, error) {
	var members []User
	path := fmt.Sprintf("/memberships/group/%d/members", groupID)
	if err := c.private(ctx, http.MethodGet, path, nil, &members, KindFetch); err != nil {
		return nil, err
	}
	return members, nil
}
