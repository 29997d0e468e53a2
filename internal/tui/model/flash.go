// Package model holds small UI-side state helpers shared by the views.
package model

import (
	"sync"
	"time"
)

// DefaultFlashDuration is how long a flash message stays visible.
const DefaultFlashDuration = 5 * time.Second

// Flash holds a transient status-bar message.
type Flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = time.Now().Add(d)
}

// Error stores an error flash with the default duration.
func (f *Flash) Error(msg string) {
	f.Set(msg, DefaultFlashDuration)
}

// Get returns the current flash message, or empty if expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return ""
	}
	return f.message
}
