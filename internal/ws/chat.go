package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hobbynet/hobnet/internal/api"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Send while no chat socket is open.
var ErrNotConnected = errors.New("chat socket is not connected")

// chatConn is one dialed socket. The manager compares handles by
// identity before acting on a read-loop callback, so a loop belonging
// to a torn-down connection can never touch state owned by its
// replacement.
type chatConn struct {
	conversationID int
	conn           *websocket.Conn
	writeMu        sync.Mutex
	onMessage      func(conversationID int, msg api.ChatMessage)
}

// ChatManager owns at most one live chat socket. Navigating to a
// conversation replaces the previous socket; there is no reconnect
// outside navigation.
type ChatManager struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *zap.Logger

	mu      sync.Mutex
	active  *chatConn
	onState func(ConnState)
}

// NewChatManager creates a manager dialing against baseURL
// (ws://host or wss://host).
func NewChatManager(baseURL string, logger *zap.Logger) *ChatManager {
	return &ChatManager{
		baseURL: baseURL,
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// SetOnState registers the state observer. Must be called before
// Connect.
func (m *ChatManager) SetOnState(fn func(ConnState)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// Connect opens the socket for one conversation, tearing down whatever
// socket was live before. onMessage fires for every decoded inbound
// message until the socket closes or is replaced.
func (m *ChatManager) Connect(ctx context.Context, conversationID int, token string, onMessage func(int, api.ChatMessage)) error {
	m.mu.Lock()
	if m.active != nil {
		// Old loop sees the close as a read error; the identity check
		// keeps it from touching the new connection's state.
		m.active.conn.Close()
		m.active = nil
	}
	notify := m.onState
	m.mu.Unlock()
	m.emit(notify, StateConnecting)

	u := fmt.Sprintf("%s/chat/ws/%d?token=%s", m.baseURL, conversationID, url.QueryEscape(token))
	conn, _, err := m.dialer.DialContext(ctx, u, nil)
	if err != nil {
		m.emit(notify, StateClosed)
		return fmt.Errorf("dial chat socket: %w", err)
	}

	h := &chatConn{conversationID: conversationID, conn: conn, onMessage: onMessage}
	m.mu.Lock()
	m.active = h
	m.mu.Unlock()
	m.emit(notify, StateOpen)

	m.logger.Info("chat socket open", zap.Int("conversation_id", conversationID))
	go m.readLoop(h)
	return nil
}

func (m *ChatManager) readLoop(h *chatConn) {
	for {
		var msg api.ChatMessage
		if err := h.conn.ReadJSON(&msg); err != nil {
			m.mu.Lock()
			wasActive := m.active == h
			if wasActive {
				m.active = nil
			}
			notify := m.onState
			m.mu.Unlock()
			if wasActive {
				m.emit(notify, StateClosed)
				m.logger.Info("chat socket closed",
					zap.Int("conversation_id", h.conversationID), zap.Error(err))
			}
			return
		}
		if !m.isActive(h) {
			return
		}
		h.onMessage(h.conversationID, msg)
	}
}

func (m *ChatManager) isActive(h *chatConn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active == h
}

// Send writes one message on the open socket. The frame is the raw
// content string; the server assembles the message record and echoes it
// back on the socket. While no socket is open the error is
// ErrNotConnected and the caller surfaces it to the user.
func (m *ChatManager) Send(content string) error {
	m.mu.Lock()
	h := m.active
	m.mu.Unlock()
	if h == nil {
		return ErrNotConnected
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := h.conn.WriteMessage(websocket.TextMessage, []byte(content)); err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

// Disconnect closes the live socket, if any. Called when leaving the
// chat view and on logout.
func (m *ChatManager) Disconnect() {
	m.mu.Lock()
	closed := false
	if m.active != nil {
		m.active.conn.Close()
		m.active = nil
		closed = true
	}
	notify := m.onState
	m.mu.Unlock()
	if closed {
		m.emit(notify, StateClosed)
	}
}

// ConversationID returns the conversation the live socket is bound to,
// or 0.
func (m *ChatManager) ConversationID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0
	}
	return m.active.conversationID
}

// State reports the current socket state.
func (m *ChatManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return StateClosed
	}
	return StateOpen
}

// emit delivers a state change outside the manager lock so the observer
// may read manager state without deadlocking.
func (m *ChatManager) emit(notify func(ConnState), s ConnState) {
	if notify != nil {
		notify(s)
	}
}
