package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hobbynet/hobnet/internal/api"
	"go.uber.org/zap"
)

func TestDecodeNotification(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Notification
	}{
		{
			name: "new conversation",
			data: `{"type":"NEW_CONVERSATION","payload":{"id":9,"name":"dm","is_dm":true}}`,
			want: NewConversation{Conversation: api.Group{ID: 9, Name: "dm", IsDM: true}},
		},
		{
			name: "new message",
			data: `{"type":"NEW_MESSAGE","payload":{"id":7}}`,
			want: NewMessage{ConversationID: 7},
		},
		{
			name: "new message without payload",
			data: `{"type":"NEW_MESSAGE"}`,
			want: NewMessage{},
		},
		{
			name: "new post",
			data: `{"type":"NEW_POST","payload":{"id":9}}`,
			want: NewPost{GroupID: 9},
		},
		{
			name: "unknown tag",
			data: `{"type":"SERVER_MAINTENANCE","payload":{"until":"soon"}}`,
			want: UnknownNotification{Kind: "SERVER_MAINTENANCE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeNotification([]byte(tt.data))
			if err != nil {
				t.Fatalf("decodeNotification: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeNotificationErrors(t *testing.T) {
	if _, err := decodeNotification([]byte(`not json`)); err == nil {
		t.Error("malformed frame decoded without error")
	}
	if _, err := decodeNotification([]byte(`{"type":"NEW_CONVERSATION"}`)); err == nil {
		t.Error("NEW_CONVERSATION without payload decoded without error")
	}
	if _, err := decodeNotification([]byte(`{"type":"NEW_CONVERSATION","payload":null}`)); err == nil {
		t.Error("NEW_CONVERSATION with null payload decoded without error")
	}
	if _, err := decodeNotification([]byte(`{"type":"NEW_MESSAGE","payload":[1]}`)); err == nil {
		t.Error("NEW_MESSAGE with non-object payload decoded without error")
	}
}

// recordingHandler collects dispatched notifications in order.
type recordingHandler struct {
	calls chan string
}

func (h *recordingHandler) HandleNewConversation(conv api.Group) { h.calls <- "conv" }
func (h *recordingHandler) HandleNewMessage(conversationID int)  { h.calls <- "msg" }
func (h *recordingHandler) HandleNewPost(groupID int)            { h.calls <- "post" }
func (h *recordingHandler) HandleUnknown(kind string)            { h.calls <- "unknown:" + kind }

func notifyServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/ws" {
			t.Errorf("path = %q, want /notifications/ws", r.URL.Path)
		}
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		for _, f := range frames {
			if err := c.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListenerDispatchesFrames(t *testing.T) {
	srv := notifyServer(t, []string{
		`{"type":"NEW_CONVERSATION","payload":{"id":4}}`,
		`{"type":"NEW_MESSAGE","payload":{"id":4}}`,
		`{"type":"NEW_POST","payload":{"id":2}}`,
		`{"type":"FUTURE_THING"}`,
	})
	l := NewListener("ws"+strings.TrimPrefix(srv.URL, "http"), zap.NewNop())
	h := &recordingHandler{calls: make(chan string, 8)}

	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background(), "tok", h) }()

	want := []string{"conv", "msg", "post", "unknown:FUTURE_THING"}
	for _, w := range want {
		select {
		case got := <-h.calls:
			if got != w {
				t.Fatalf("dispatched %q, want %q", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}

	// The server hangs up after its frames; Run surfaces that.
	select {
	case err := <-errc:
		if err == nil {
			t.Error("Run returned nil after server hangup")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after server hangup")
	}
}

func TestListenerStopsOnCancel(t *testing.T) {
	up := websocket.Upgrader{}
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		<-block
	}))
	defer srv.Close()
	defer close(block)

	l := NewListener("ws"+strings.TrimPrefix(srv.URL, "http"), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- l.Run(ctx, "tok", &recordingHandler{calls: make(chan string, 1)})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestListenerDialFailure(t *testing.T) {
	l := NewListener("ws://127.0.0.1:1", zap.NewNop())
	err := l.Run(context.Background(), "tok", &recordingHandler{calls: make(chan string, 1)})
	if err == nil {
		t.Fatal("Run against closed port succeeded")
	}
}
