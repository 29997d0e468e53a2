package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hobbynet/hobnet/internal/api"
	"go.uber.org/zap"
)

// chatServer upgrades every request and exposes the server side of each
// accepted socket.
type chatServer struct {
	srv   *httptest.Server
	conns chan serverConn
}

type serverConn struct {
	path  string
	token string
	conn  *websocket.Conn
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	cs := &chatServer{conns: make(chan serverConn, 4)}
	up := websocket.Upgrader{}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		cs.conns <- serverConn{path: r.URL.Path, token: r.URL.Query().Get("token"), conn: c}
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *chatServer) wsURL() string {
	return "ws" + strings.TrimPrefix(cs.srv.URL, "http")
}

func (cs *chatServer) accept(t *testing.T) serverConn {
	t.Helper()
	select {
	case sc := <-cs.conns:
		return sc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side connection")
		return serverConn{}
	}
}

func recvMessage(t *testing.T, ch <-chan api.ChatMessage) api.ChatMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return api.ChatMessage{}
	}
}

func TestConnectDeliversMessages(t *testing.T) {
	cs := newChatServer(t)
	m := NewChatManager(cs.wsURL(), zap.NewNop())

	got := make(chan api.ChatMessage, 1)
	if err := m.Connect(context.Background(), 3, "tok", func(convID int, msg api.ChatMessage) {
		if convID != 3 {
			t.Errorf("conversation id = %d, want 3", convID)
		}
		got <- msg
	}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer m.Disconnect()

	sc := cs.accept(t)
	if sc.path != "/chat/ws/3" {
		t.Errorf("path = %q, want /chat/ws/3", sc.path)
	}
	if sc.token != "tok" {
		t.Errorf("token = %q, want tok", sc.token)
	}

	want := api.ChatMessage{ID: 11, User: api.ChatSender{ID: 7, Name: "Ada"}, Content: "hi"}
	if err := sc.conn.WriteJSON(want); err != nil {
		t.Fatalf("server write: %v", err)
	}
	if msg := recvMessage(t, got); msg.ID != want.ID || msg.Content != want.Content {
		t.Errorf("got %+v, want %+v", msg, want)
	}
}

func TestSendRequiresOpenSocket(t *testing.T) {
	m := NewChatManager("ws://unused", zap.NewNop())
	if err := m.Send("hello"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send without socket = %v, want ErrNotConnected", err)
	}

	cs := newChatServer(t)
	m = NewChatManager(cs.wsURL(), zap.NewNop())
	if err := m.Connect(context.Background(), 1, "tok", func(int, api.ChatMessage) {}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	cs.accept(t)
	m.Disconnect()
	if err := m.Send("hello"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send after Disconnect = %v, want ErrNotConnected", err)
	}
}

func TestSendReachesServer(t *testing.T) {
	cs := newChatServer(t)
	m := NewChatManager(cs.wsURL(), zap.NewNop())
	if err := m.Connect(context.Background(), 1, "tok", func(int, api.ChatMessage) {}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer m.Disconnect()
	sc := cs.accept(t)

	if err := m.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// The frame is the bare content string; the server turns it into a
	// message record.
	kind, data, err := sc.conn.ReadMessage()
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("frame type = %d, want text", kind)
	}
	if string(data) != "hello" {
		t.Errorf("frame = %q, want hello", data)
	}
}

// Switching conversations must leave exactly one live socket, bound to
// the new conversation, with the old socket's callbacks detached.
func TestSwitchLeavesSingleConnection(t *testing.T) {
	cs := newChatServer(t)
	m := NewChatManager(cs.wsURL(), zap.NewNop())

	got := make(chan api.ChatMessage, 4)
	onMsg := func(convID int, msg api.ChatMessage) { got <- msg }

	if err := m.Connect(context.Background(), 1, "tok", onMsg); err != nil {
		t.Fatalf("Connect A: %v", err)
	}
	first := cs.accept(t)

	if err := m.Connect(context.Background(), 2, "tok", onMsg); err != nil {
		t.Fatalf("Connect B: %v", err)
	}
	second := cs.accept(t)
	defer m.Disconnect()

	if got := m.ConversationID(); got != 2 {
		t.Fatalf("ConversationID = %d, want 2", got)
	}

	// The server side of the first socket observes the close.
	_ = first.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := first.conn.ReadMessage(); err == nil {
		t.Fatal("first connection still readable after switch")
	}

	// Only the second socket delivers.
	if err := second.conn.WriteJSON(api.ChatMessage{ID: 9, Content: "b"}); err != nil {
		t.Fatalf("server write: %v", err)
	}
	if msg := recvMessage(t, got); msg.ID != 9 {
		t.Errorf("message id = %d, want 9", msg.ID)
	}
}

func TestStateTransitions(t *testing.T) {
	cs := newChatServer(t)
	m := NewChatManager(cs.wsURL(), zap.NewNop())

	states := make(chan ConnState, 8)
	m.SetOnState(func(s ConnState) { states <- s })

	if err := m.Connect(context.Background(), 1, "tok", func(int, api.ChatMessage) {}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	cs.accept(t)
	m.Disconnect()

	want := []ConnState{StateConnecting, StateOpen, StateClosed}
	for _, w := range want {
		select {
		case s := <-states:
			if s != w {
				t.Fatalf("state = %v, want %v", s, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for state %v", w)
		}
	}
}

func TestConnectDialFailure(t *testing.T) {
	m := NewChatManager("ws://127.0.0.1:1", zap.NewNop())
	if err := m.Connect(context.Background(), 1, "tok", func(int, api.ChatMessage) {}); err == nil {
		t.Fatal("Connect against closed port succeeded")
	}
	if m.State() != StateClosed {
		t.Errorf("state = %v, want closed", m.State())
	}
}
