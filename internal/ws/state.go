// Package ws manages the two live sockets of the client: the
// per-conversation chat socket and the per-session notification socket.
package ws

// ConnState is the lifecycle of the chat socket as the UI sees it.
type ConnState int

const (
	StateClosed ConnState = iota
	StateConnecting
	StateOpen
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}
