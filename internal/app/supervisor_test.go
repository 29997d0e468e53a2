package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/session"
	"github.com/hobbynet/hobnet/internal/ws"
	"go.uber.org/zap"
)

// nopHandler satisfies the notification handler without side effects.
type nopHandler struct{}

func (nopHandler) HandleNewConversation(api.Group) {}
func (nopHandler) HandleNewMessage(int)            {}
func (nopHandler) HandleNewPost(int)               {}
func (nopHandler) HandleUnknown(string)            {}

func restoredSession(t *testing.T, b *bus.Bus) *session.Service {
	t.Helper()
	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	data, _ := json.Marshal(map[string]any{
		"token": "tok",
		"user":  api.User{ID: 1, Name: "Ada"},
	})
	if err := os.WriteFile(credsPath, data, 0600); err != nil {
		t.Fatal(err)
	}
	sess := session.New(api.New("http://unused", zap.NewNop()), b, zap.NewNop(), credsPath)
	if !sess.Restore() {
		t.Fatal("session did not restore")
	}
	return sess
}

// The supervisor opens the notification socket for a live session and
// tears it down on logout.
func TestSupervisorFollowsSession(t *testing.T) {
	up := websocket.Upgrader{}
	connected := make(chan string, 2)
	dropped := make(chan struct{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connected <- r.URL.Query().Get("token")
		_, _, _ = c.ReadMessage() // blocks until the client hangs up
		dropped <- struct{}{}
		_ = c.Close()
	}))
	defer srv.Close()

	b := bus.New()
	defer b.Close()
	sess := restoredSession(t, b)
	listener := ws.NewListener("ws"+strings.TrimPrefix(srv.URL, "http"), zap.NewNop())

	super := newSupervisor(sess, listener, nopHandler{}, b, zap.NewNop())
	super.Start()
	defer super.Stop()

	select {
	case token := <-connected:
		if token != "tok" {
			t.Errorf("token = %q, want tok", token)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not connect for restored session")
	}

	sess.Logout()
	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("listener still connected after logout")
	}
}

func TestSupervisorIdleWithoutSession(t *testing.T) {
	dialed := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dialed <- struct{}{}
	}))
	defer srv.Close()

	b := bus.New()
	defer b.Close()
	sess := session.New(api.New("http://unused", zap.NewNop()), b, zap.NewNop(),
		filepath.Join(t.TempDir(), "credentials.json"))
	listener := ws.NewListener("ws"+strings.TrimPrefix(srv.URL, "http"), zap.NewNop())

	super := newSupervisor(sess, listener, nopHandler{}, b, zap.NewNop())
	super.Start()
	defer super.Stop()

	select {
	case <-dialed:
		t.Fatal("listener dialed without a session")
	case <-time.After(200 * time.Millisecond):
	}
}
