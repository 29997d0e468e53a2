package api

import "time"

// Hobby is an interest tag attached to users and groups.
type Hobby struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is the authenticated-user profile returned by /users/me.
type User struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Hobbies          []Hobby   `json:"hobbies"`
	GroupMemberships []int     `json:"group_memberships"`
	CreatedAt        time.Time `json:"created_at"`
}

// Group is a hobby group or a direct-message conversation. Both are
// identified by the same id space and carry the same chat scoping key.
type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Hobby       string    `json:"hobby"`
	CreatorID   int       `json:"creator_id"`
	IsDM        bool      `json:"is_dm"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupCreate is the payload for creating or updating a group.
type GroupCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Hobby       string `json:"hobby"`
}

// Membership is returned by the join endpoint.
type Membership struct {
	UserID   int       `json:"user_id"`
	GroupID  int       `json:"group_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Post is a message board entry scoped to one group.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Owner     User      `json:"owner"`
	GroupID   int       `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostCreate is the payload for creating a post.
type PostCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChatSender is the nested author on a chat message.
type ChatSender struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ChatMessage is one message in a conversation.
type ChatMessage struct {
	ID        int        `json:"id"`
	User      ChatSender `json:"user"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// SearchResults holds the three independent result sets of the unified
// search endpoint, replaced wholesale per query.
type SearchResults struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
	Posts  []Post  `json:"posts"`
}

// Credentials is the login response.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
