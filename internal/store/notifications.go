package store

import (
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/session"
	"go.uber.org/zap"
)

// Dispatcher applies server push notifications to the stores. It is the
// notification listener's handler; each variant has a fixed effect and
// unknown variants are logged and dropped so older clients survive new
// server event types.
type Dispatcher struct {
	groups  *Groups
	session *session.Service
	unread  *Unread
	logger  *zap.Logger
}

// NewDispatcher creates the notification dispatcher.
func NewDispatcher(groups *Groups, sess *session.Service, unread *Unread, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{groups: groups, session: sess, unread: unread, logger: logger}
}

// HandleNewConversation records a conversation the server created for
// the user (someone opened a DM with them) and badges it.
func (d *Dispatcher) HandleNewConversation(conv api.Group) {
	d.groups.AddConversation(conv)
	d.session.AddMembership(conv.ID)
	d.unread.IncrementChat()
	d.logger.Info("new conversation", zap.Int("conversation_id", conv.ID))
}

// HandleNewMessage badges a message in a conversation that is not
// currently on screen.
func (d *Dispatcher) HandleNewMessage(conversationID int) {
	d.unread.IncrementChat()
	d.logger.Debug("new message notification", zap.Int("conversation_id", conversationID))
}

// HandleNewPost badges a post in one of the user's groups.
func (d *Dispatcher) HandleNewPost(groupID int) {
	d.unread.IncrementPosts()
	d.logger.Debug("new post notification", zap.Int("group_id", groupID))
}

// HandleUnknown drops an unrecognized notification type.
func (d *Dispatcher) HandleUnknown(kind string) {
	d.logger.Warn("unknown notification type", zap.String("type", kind))
}
