package app

import (
	"context"
	"sync"

	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/session"
	"github.com/hobbynet/hobnet/internal/ws"
	"go.uber.org/zap"
)

// supervisor ties the notification listener to the session: the socket
// is opened when a session becomes live and torn down on logout. There
// is no reconnect loop; a dropped socket stays down until the next
// login.
type supervisor struct {
	sess     *session.Service
	listener *ws.Listener
	handler  ws.NotificationHandler
	bus      *bus.Bus
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	unsub  func()
}

func newSupervisor(sess *session.Service, listener *ws.Listener, handler ws.NotificationHandler, b *bus.Bus, logger *zap.Logger) *supervisor {
	return &supervisor{sess: sess, listener: listener, handler: handler, bus: b, logger: logger}
}

// Start begins following session state. Safe to call once.
func (s *supervisor) Start() {
	events, unsub := s.bus.Subscribe("session.", 16)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	if s.sess.IsLoggedIn() {
		s.startListener()
	}

	go func() {
		for evt := range events {
			switch evt.Topic {
			case bus.TopicSessionChanged:
				if loggedIn, _ := evt.Payload.(bool); loggedIn {
					s.startListener()
				} else {
					s.stopListener()
				}
			case bus.TopicSessionLoggedOut:
				s.stopListener()
			}
		}
	}()
}

// Stop tears down the subscription and any live socket.
func (s *supervisor) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	s.stopListener()
}

func (s *supervisor) startListener() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	token := s.sess.Token()
	go func() {
		err := s.listener.Run(ctx, token, s.handler)
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("notification socket lost", zap.Error(err))
		}
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()
}

func (s *supervisor) stopListener() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
