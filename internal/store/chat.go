package store

import (
	"context"
	"slices"
	"sync"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/cache"
	"github.com/hobbynet/hobnet/internal/status"
	"github.com/hobbynet/hobnet/internal/ws"
	"go.uber.org/zap"
)

// History is the local message cache behind the chat store. Cached rows
// let a reopened conversation render before the network answers, and the
// full-text index backs in-conversation search.
type History interface {
	SaveConversation(conv api.Group) error
	Conversations() ([]api.Group, error)
	SaveMessage(conversationID int, msg api.ChatMessage) error
	RecentMessages(conversationID, limit int) ([]api.ChatMessage, error)
	SearchMessages(query string, conversationID, limit int) ([]cache.SearchHit, error)
}

// historyPageSize bounds the cached backlog seeded into the view.
const historyPageSize = 200

// Chat holds the transcript of the open conversation. Messages are
// deduped by server id, so a message that arrives both over the socket
// and in the history fetch lands once.
type Chat struct {
	api     *api.Client
	bus     *bus.Bus
	history History
	logger  *zap.Logger

	mu sync.RWMutex
	tracked
	conversationID int
	messages       []api.ChatMessage
	seen           map[int]struct{}
	conn           ws.ConnState
}

// NewChat creates the chat store. history may be nil when no local cache
// is available.
func NewChat(client *api.Client, b *bus.Bus, history History, logger *zap.Logger) *Chat {
	return &Chat{
		api:     client,
		bus:     b,
		history: history,
		logger:  logger,
		tracked: newTracked(),
		seen:    map[int]struct{}{},
		conn:    ws.StateClosed,
	}
}

// Open switches the store to a conversation: the previous transcript is
// dropped, cached messages are seeded immediately, then the authoritative
// history is fetched.
func (c *Chat) Open(ctx context.Context, conversationID int) error {
	c.mu.Lock()
	c.conversationID = conversationID
	c.messages = nil
	c.seen = map[int]struct{}{}
	c.begin()
	if c.history != nil {
		if cached, err := c.history.RecentMessages(conversationID, historyPageSize); err == nil {
			for _, m := range cached {
				c.appendLocked(m)
			}
		} else {
			c.logger.Warn("failed to read cached messages", zap.Int("conversation_id", conversationID), zap.Error(err))
		}
	}
	c.mu.Unlock()
	c.publishMessages(conversationID)

	msgs, err := c.api.ChatHistory(ctx, conversationID)
	if err != nil {
		c.mu.Lock()
		c.fail(api.Message(err, "Failed to load chat history"))
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.conversationID != conversationID {
		// The user already navigated elsewhere.
		c.mu.Unlock()
		return nil
	}
	for _, m := range msgs {
		if c.appendLocked(m) {
			c.saveLocked(conversationID, m)
		}
	}
	c.ok()
	c.mu.Unlock()
	c.publishMessages(conversationID)
	return nil
}

// Append records a live message for the open conversation. Returns false
// for duplicates and for messages belonging to another conversation.
func (c *Chat) Append(conversationID int, msg api.ChatMessage) bool {
	c.mu.Lock()
	if c.conversationID != conversationID {
		c.mu.Unlock()
		return false
	}
	added := c.appendLocked(msg)
	if added {
		c.saveLocked(conversationID, msg)
	}
	c.mu.Unlock()

	if added {
		c.bus.Publish(bus.Event{Topic: bus.TopicChatMessage, Payload: msg})
	}
	return added
}

// The server delivers history oldest-first and live messages after it,
// so plain append keeps the transcript ordered.
func (c *Chat) appendLocked(msg api.ChatMessage) bool {
	if _, dup := c.seen[msg.ID]; dup {
		return false
	}
	c.seen[msg.ID] = struct{}{}
	c.messages = append(c.messages, msg)
	return true
}

func (c *Chat) saveLocked(conversationID int, msg api.ChatMessage) {
	if c.history == nil {
		return
	}
	if err := c.history.SaveMessage(conversationID, msg); err != nil {
		c.logger.Warn("failed to cache message", zap.Int("message_id", msg.ID), zap.Error(err))
	}
}

// Clear drops the transcript when the chat view is left.
func (c *Chat) Clear() {
	c.mu.Lock()
	c.conversationID = 0
	c.messages = nil
	c.seen = map[int]struct{}{}
	c.tracked = newTracked()
	c.mu.Unlock()
}

// SetConnState mirrors the socket state so the UI can gate its composer.
func (c *Chat) SetConnState(s ws.ConnState) {
	c.mu.Lock()
	changed := c.conn != s
	c.conn = s
	c.mu.Unlock()

	if changed {
		c.bus.Publish(bus.Event{Topic: bus.TopicChatConnState, Payload: s})
	}
}

// ConnState returns the mirrored socket state.
func (c *Chat) ConnState() ws.ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Messages returns a snapshot of the transcript, oldest first.
func (c *Chat) Messages() []api.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages)
}

// SearchHistory runs a full-text query against the cached transcript of
// the open conversation. It never touches the network; the server's
// /search endpoint covers everything the cache has not seen.
func (c *Chat) SearchHistory(query string) ([]cache.SearchHit, error) {
	c.mu.RLock()
	conversationID := c.conversationID
	history := c.history
	c.mu.RUnlock()

	if history == nil || conversationID == 0 {
		return nil, nil
	}
	return history.SearchMessages(query, conversationID, historyPageSize)
}

// ConversationID returns the open conversation, or 0.
func (c *Chat) ConversationID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conversationID
}

// Status returns the store's request status.
func (c *Chat) Status() status.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Err returns the last error message, or empty.
func (c *Chat) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *Chat) publishMessages(conversationID int) {
	c.bus.Publish(bus.Event{Topic: bus.TopicChatMessage, Payload: conversationID})
}
