package cache

import (
	"slices"
	"time"

	"github.com/hobbynet/hobnet/internal/api"
)

const defaultPageSize = 50

// SaveMessage inserts or updates a message, idempotent on
// conversation_id + message_id so history fetches and live deliveries
// can overlap freely.
func (db *DB) SaveMessage(conversationID int, msg api.ChatMessage) error {
	_, err := db.Exec(`
		INSERT INTO messages (conversation_id, message_id, sender_id, sender_name, content, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, message_id) DO UPDATE SET
			sender_name = excluded.sender_name,
			content = excluded.content`,
		conversationID, msg.ID, msg.User.ID, msg.User.Name, msg.Content, msg.Timestamp.UnixMilli())
	return err
}

// RecentMessages returns the newest messages of a conversation in
// display order, oldest first.
func (db *DB) RecentMessages(conversationID, limit int) ([]api.ChatMessage, error) {
	msgs, err := db.MessagesBefore(conversationID, 0, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// MessagesBefore returns up to limit messages older than beforeID using
// keyset pagination, newest first. beforeID <= 0 starts from the newest
// message.
func (db *DB) MessagesBefore(conversationID, beforeID, limit int) ([]api.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := `
		SELECT message_id, sender_id, sender_name, content, timestamp
		FROM messages
		WHERE conversation_id = ?`
	args := []any{conversationID}
	if beforeID > 0 {
		q += " AND message_id < ?"
		args = append(args, beforeID)
	}
	q += " ORDER BY message_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []api.ChatMessage
	for rows.Next() {
		var m api.ChatMessage
		var ts int64
		if err := rows.Scan(&m.ID, &m.User.ID, &m.User.Name, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Timestamp = time.UnixMilli(ts).UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
