package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/hobbynet/hobnet/internal/api"
	"go.uber.org/zap"
)

// Wire tags of the notification socket.
const (
	kindNewConversation = "NEW_CONVERSATION"
	kindNewMessage      = "NEW_MESSAGE"
	kindNewPost         = "NEW_POST"
)

// Notification is the closed set of events the notification socket
// delivers. Adding a variant means adding a case here and a handler
// method, so a missed variant is a compile-time hole, not a silent one.
type Notification interface {
	isNotification()
}

// NewConversation announces a conversation the server created for the
// user, carrying the full conversation record.
type NewConversation struct {
	Conversation api.Group
}

// NewMessage announces a message in a conversation the user belongs to.
type NewMessage struct {
	ConversationID int
}

// NewPost announces a post in one of the user's groups.
type NewPost struct {
	GroupID int
}

// UnknownNotification carries the tag of a variant this client does not
// know. It is logged and dropped.
type UnknownNotification struct {
	Kind string
}

func (NewConversation) isNotification()     {}
func (NewMessage) isNotification()          {}
func (NewPost) isNotification()             {}
func (UnknownNotification) isNotification() {}

// envelope is the tagged wire shape: {"type": "...", "payload": {...}}.
// The payload's meaning depends on the tag.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeNotification parses one frame into the sum type. An unknown tag
// is not an error; a malformed frame is.
func decodeNotification(data []byte) (Notification, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	switch env.Type {
	case kindNewConversation:
		var conv api.Group
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &conv); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
			}
		}
		// The consumer inserts the record and registers its membership,
		// so a payload without an id is unusable.
		if conv.ID == 0 {
			return nil, fmt.Errorf("notification %s without conversation payload", env.Type)
		}
		return NewConversation{Conversation: conv}, nil
	case kindNewMessage:
		id, err := decodeIDPayload(env)
		if err != nil {
			return nil, err
		}
		return NewMessage{ConversationID: id}, nil
	case kindNewPost:
		id, err := decodeIDPayload(env)
		if err != nil {
			return nil, err
		}
		return NewPost{GroupID: id}, nil
	default:
		return UnknownNotification{Kind: env.Type}, nil
	}
}

// decodeIDPayload reads the id of a payload that references a record.
// A missing payload is tolerated: these variants only bump counters.
func decodeIDPayload(env envelope) (int, error) {
	if len(env.Payload) == 0 {
		return 0, nil
	}
	var p struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return 0, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return p.ID, nil
}

// NotificationHandler receives decoded notifications. One method per
// variant keeps the dispatch policy out of this package.
type NotificationHandler interface {
	HandleNewConversation(conv api.Group)
	HandleNewMessage(conversationID int)
	HandleNewPost(groupID int)
	HandleUnknown(kind string)
}

// Listener reads the per-session notification socket. It lives for the
// whole logged-in session, independent of which view is open.
type Listener struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *zap.Logger
}

// NewListener creates a listener dialing against baseURL.
func NewListener(baseURL string, logger *zap.Logger) *Listener {
	return &Listener{baseURL: baseURL, dialer: websocket.DefaultDialer, logger: logger}
}

// Run dials the socket and dispatches frames until the connection drops
// or ctx is cancelled. The caller owns the lifecycle: it starts Run on
// login and cancels the context on logout.
func (l *Listener) Run(ctx context.Context, token string, h NotificationHandler) error {
	u := l.baseURL + "/notifications/ws?token=" + url.QueryEscape(token)
	conn, _, err := l.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial notification socket: %w", err)
	}
	defer conn.Close()
	l.logger.Info("notification socket open")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("notification socket closed: %w", err)
		}
		n, err := decodeNotification(data)
		if err != nil {
			l.logger.Warn("dropping malformed notification", zap.Error(err))
			continue
		}
		dispatch(n, h)
	}
}

func dispatch(n Notification, h NotificationHandler) {
	switch v := n.(type) {
	case NewConversation:
		h.HandleNewConversation(v.Conversation)
	case NewMessage:
		h.HandleNewMessage(v.ConversationID)
	case NewPost:
		h.HandleNewPost(v.GroupID)
	case UnknownNotification:
		h.HandleUnknown(v.Kind)
	}
}
