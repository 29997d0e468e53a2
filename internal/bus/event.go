package bus

import "time"

// Topics used across the client. Subscribers filter by prefix, so a
// subscription to "session." receives every session event.
const (
	TopicSessionChanged   = "session.changed"
	TopicSessionStatus    = "session.status_changed"
	TopicSessionLoggedOut = "session.logged_out"

	TopicGroupsChanged     = "group.list_changed"
	TopicGroupUpdated      = "group.updated"
	TopicConversationAdded = "group.conversation_added"

	TopicPostsChanged  = "post.list_changed"
	TopicChatMessage   = "chat.message"
	TopicChatConnState = "chat.conn_state"
	TopicSearchResults = "search.results"
	TopicUnreadChanged = "notify.unread_changed"
)

// Event is a domain event published on the bus.
type Event struct {
	Topic     string
	Timestamp time.Time
	Payload   any
}
