package store

import (
	"context"
	"slices"
	"sync"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/session"
	"github.com/hobbynet/hobnet/internal/status"
	"go.uber.org/zap"
)

// Groups holds the group catalog, the currently-viewed group with its
// members, and the conversation list (groups plus DMs). Membership ids
// themselves live on the session; this store delegates to it so both
// views agree.
type Groups struct {
	api     *api.Client
	session *session.Service
	bus     *bus.Bus
	history History
	logger  *zap.Logger

	mu sync.RWMutex
	tracked
	groups        []api.Group
	current       *api.Group
	members       []api.User
	conversations []api.Group
}

// NewGroups creates the groups store. history may be nil when no local
// cache is available.
func NewGroups(client *api.Client, sess *session.Service, b *bus.Bus, history History, logger *zap.Logger) *Groups {
	return &Groups{api: client, session: sess, bus: b, history: history, logger: logger, tracked: newTracked()}
}

// FetchAll loads the full group catalog.
func (g *Groups) FetchAll(ctx context.Context) error {
	g.setLoading()
	groups, err := g.api.ListGroups(ctx)
	if err != nil {
		g.setFailed(err)
		return err
	}
	g.mu.Lock()
	g.groups = groups
	g.ok()
	g.mu.Unlock()
	g.publishList()
	return nil
}

// FetchOne loads one group as the current detail view, along with its
// member list.
func (g *Groups) FetchOne(ctx context.Context, groupID int) error {
	g.setLoading()
	group, err := g.api.GetGroup(ctx, groupID)
	if err != nil {
		g.setFailed(err)
		return err
	}
	members, err := g.api.GroupMembers(ctx, groupID)
	if err != nil {
		// The detail page is still usable without the member list.
		g.logger.Warn("failed to fetch group members", zap.Int("group_id", groupID), zap.Error(err))
		members = nil
	}
	g.mu.Lock()
	g.current = group
	g.members = members
	g.ok()
	g.mu.Unlock()
	g.bus.Publish(bus.Event{Topic: bus.TopicGroupUpdated, Payload: *group})
	return nil
}

// Create creates a group and appends it to the catalog.
func (g *Groups) Create(ctx context.Context, data api.GroupCreate) (*api.Group, error) {
	group, err := g.api.CreateGroup(ctx, data)
	if err != nil {
		g.setFailed(err)
		return nil, err
	}
	g.mu.Lock()
	g.groups = append(g.groups, *group)
	g.ok()
	g.mu.Unlock()
	g.publishList()
	return group, nil
}

// Update edits a group, replaces it in the catalog by id and refreshes
// the current detail view when it is the one being edited.
func (g *Groups) Update(ctx context.Context, groupID int, data api.GroupCreate) (*api.Group, error) {
	group, err := g.api.UpdateGroup(ctx, groupID, data)
	if err != nil {
		g.setFailed(err)
		return nil, err
	}
	g.mu.Lock()
	for i := range g.groups {
		if g.groups[i].ID == groupID {
			g.groups[i] = *group
			break
		}
	}
	if g.current != nil && g.current.ID == groupID {
		g.current = group
	}
	g.ok()
	g.mu.Unlock()
	g.publishList()
	g.bus.Publish(bus.Event{Topic: bus.TopicGroupUpdated, Payload: *group})
	return group, nil
}

// Join adds the user to a group. The membership id set lives on the
// session, which enforces set semantics on repeat joins.
func (g *Groups) Join(ctx context.Context, groupID int) error {
	if _, err := g.api.JoinGroup(ctx, groupID); err != nil {
		return err
	}
	g.session.AddMembership(groupID)
	return nil
}

// Leave removes the user from a group.
func (g *Groups) Leave(ctx context.Context, groupID int) error {
	if err := g.api.LeaveGroup(ctx, groupID); err != nil {
		return err
	}
	g.session.RemoveMembership(groupID)
	return nil
}

// FetchConversations loads the joined groups and DMs used by the chat
// sidebar. An empty sidebar is seeded from the local cache first, so it
// renders before the network answers; the server response then replaces
// it and is written back to the cache.
func (g *Groups) FetchConversations(ctx context.Context) error {
	seeded := false
	g.mu.Lock()
	if len(g.conversations) == 0 && g.history != nil {
		cached, err := g.history.Conversations()
		if err != nil {
			g.logger.Warn("failed to read cached conversations", zap.Error(err))
		} else if len(cached) > 0 {
			g.conversations = cached
			seeded = true
		}
	}
	g.mu.Unlock()
	if seeded {
		g.bus.Publish(bus.Event{Topic: bus.TopicConversationAdded})
	}

	convs, err := g.api.Conversations(ctx)
	if err != nil {
		g.setFailed(err)
		return err
	}
	g.mu.Lock()
	g.conversations = convs
	g.ok()
	g.mu.Unlock()
	for _, c := range convs {
		g.saveConversation(c)
	}
	g.bus.Publish(bus.Event{Topic: bus.TopicConversationAdded})
	return nil
}

// StartDirectMessage gets or creates the DM with the target user and
// records it as a conversation.
func (g *Groups) StartDirectMessage(ctx context.Context, targetUserID int) (*api.Group, error) {
	conv, err := g.api.StartDirectMessage(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	g.AddConversation(*conv)
	g.session.AddMembership(conv.ID)
	return conv, nil
}

// AddConversation records a conversation pushed by the server. Repeat
// deliveries of the same conversation id are ignored.
func (g *Groups) AddConversation(conv api.Group) {
	g.mu.Lock()
	exists := slices.ContainsFunc(g.conversations, func(c api.Group) bool {
		return c.ID == conv.ID
	})
	if !exists {
		g.conversations = append(g.conversations, conv)
	}
	g.mu.Unlock()

	if !exists {
		g.saveConversation(conv)
		g.bus.Publish(bus.Event{Topic: bus.TopicConversationAdded, Payload: conv})
	}
}

func (g *Groups) saveConversation(conv api.Group) {
	if g.history == nil {
		return
	}
	if err := g.history.SaveConversation(conv); err != nil {
		g.logger.Warn("failed to cache conversation", zap.Int("conversation_id", conv.ID), zap.Error(err))
	}
}

// All returns a snapshot of the group catalog.
func (g *Groups) All() []api.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.groups)
}

// Current returns the group in the detail view, or nil.
func (g *Groups) Current() *api.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return nil
	}
	c := *g.current
	return &c
}

// Members returns the member list of the current detail view.
func (g *Groups) Members() []api.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.members)
}

// Conversations returns a snapshot of the conversation list.
func (g *Groups) Conversations() []api.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.conversations)
}

// Status returns the store's request status.
func (g *Groups) Status() status.Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Err returns the last error message, or empty.
func (g *Groups) Err() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.errMsg
}

func (g *Groups) setLoading() {
	g.mu.Lock()
	g.begin()
	g.mu.Unlock()
}

func (g *Groups) setFailed(err error) {
	g.mu.Lock()
	g.fail(api.Message(err, "Request failed"))
	g.mu.Unlock()
}

func (g *Groups) publishList() {
	g.bus.Publish(bus.Event{Topic: bus.TopicGroupsChanged})
}
