// Package store holds the client-side domain state: groups, posts, chat
// messages, search results and unread counters. Each store is the single
// writer of its slice of state; the TUI and CLI read snapshots and react
// to bus events instead of polling.
package store

import "github.com/hobbynet/hobnet/internal/status"

// tracked is the request-status slot embedded in every fetching store.
// Callers hold the store's mutex around these.
type tracked struct {
	status status.Status
	errMsg string
}

func newTracked() tracked {
	return tracked{status: status.Idle}
}

func (t *tracked) begin() {
	t.status = status.Loading
	t.errMsg = ""
}

func (t *tracked) ok() {
	t.status = status.Succeeded
}

func (t *tracked) fail(msg string) {
	t.status = status.Failed
	t.errMsg = msg
}
