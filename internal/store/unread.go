package store

import (
	"sync"

	"github.com/hobbynet/hobnet/internal/bus"
)

// Counts is the payload of notify.unread_changed events.
type Counts struct {
	Chat  int
	Posts int
}

// Unread tracks the two notification badges. Counters only grow on
// server pushes and reset when the user opens the corresponding view.
type Unread struct {
	bus *bus.Bus

	mu    sync.RWMutex
	chat  int
	posts int
}

// NewUnread creates the unread-counter store.
func NewUnread(b *bus.Bus) *Unread {
	return &Unread{bus: b}
}

// IncrementChat bumps the chat badge.
func (u *Unread) IncrementChat() {
	u.mu.Lock()
	u.chat++
	u.mu.Unlock()
	u.publish()
}

// IncrementPosts bumps the posts badge.
func (u *Unread) IncrementPosts() {
	u.mu.Lock()
	u.posts++
	u.mu.Unlock()
	u.publish()
}

// ResetChat clears the chat badge; called when a chat view opens.
func (u *Unread) ResetChat() {
	u.mu.Lock()
	changed := u.chat != 0
	u.chat = 0
	u.mu.Unlock()
	if changed {
		u.publish()
	}
}

// ResetPosts clears the posts badge; called when the groups view opens.
func (u *Unread) ResetPosts() {
	u.mu.Lock()
	changed := u.posts != 0
	u.posts = 0
	u.mu.Unlock()
	if changed {
		u.publish()
	}
}

// Counts returns the current badge values.
func (u *Unread) Counts() Counts {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Counts{Chat: u.chat, Posts: u.posts}
}

func (u *Unread) publish() {
	u.bus.Publish(bus.Event{Topic: bus.TopicUnreadChanged, Payload: u.Counts()})
}
