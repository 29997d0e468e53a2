package store

import (
	"context"
	"slices"
	"sync"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/status"
)

// Posts holds the message board of the group currently in view. Leaving
// the group view clears it; each group's board is fetched fresh on entry.
type Posts struct {
	api *api.Client
	bus *bus.Bus

	mu sync.RWMutex
	tracked
	groupID int
	posts   []api.Post
}

// NewPosts creates the posts store.
func NewPosts(client *api.Client, b *bus.Bus) *Posts {
	return &Posts{api: client, bus: b, tracked: newTracked()}
}

// FetchForGroup loads the board of one group, replacing whatever was
// held before.
func (p *Posts) FetchForGroup(ctx context.Context, groupID int) error {
	p.mu.Lock()
	p.begin()
	p.groupID = groupID
	p.posts = nil
	p.mu.Unlock()

	posts, err := p.api.ListPosts(ctx, groupID)
	if err != nil {
		p.mu.Lock()
		p.fail(api.Message(err, "Failed to load posts"))
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	if p.groupID == groupID { // still on the same group
		p.posts = posts
		p.ok()
	}
	p.mu.Unlock()
	p.bus.Publish(bus.Event{Topic: bus.TopicPostsChanged, Payload: groupID})
	return nil
}

// Create posts to the current group and prepends the result so the
// newest entry renders first.
func (p *Posts) Create(ctx context.Context, groupID int, data api.PostCreate) (*api.Post, error) {
	post, err := p.api.CreatePost(ctx, groupID, data)
	if err != nil {
		p.mu.Lock()
		p.fail(api.Message(err, "Failed to create post"))
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	if p.groupID == groupID {
		p.posts = append([]api.Post{*post}, p.posts...)
		p.ok()
	}
	p.mu.Unlock()
	p.bus.Publish(bus.Event{Topic: bus.TopicPostsChanged, Payload: groupID})
	return post, nil
}

// Clear drops the board when the group view is left.
func (p *Posts) Clear() {
	p.mu.Lock()
	p.groupID = 0
	p.posts = nil
	p.tracked = newTracked()
	p.mu.Unlock()
}

// All returns a snapshot of the current board, newest first.
func (p *Posts) All() []api.Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.posts)
}

// GroupID returns the group whose board is held, or 0.
func (p *Posts) GroupID() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.groupID
}

// Status returns the store's request status.
func (p *Posts) Status() status.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Err returns the last error message, or empty.
func (p *Posts) Err() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.errMsg
}
