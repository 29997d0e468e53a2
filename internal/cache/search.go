package cache

import (
	"time"

	"github.com/hobbynet/hobnet/internal/api"
)

// SearchHit is one full-text match with a highlighted snippet.
type SearchHit struct {
	ConversationID int
	Message        api.ChatMessage
	Snippet        string
}

// SearchMessages performs a full-text search over cached message bodies.
// conversationID 0 searches every conversation.
func (db *DB) SearchMessages(query string, conversationID, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	q := `
		SELECT m.conversation_id, m.message_id, m.sender_id, m.sender_name,
		       m.content, m.timestamp,
		       snippet(messages_fts, 0, '<<', '>>', '...', 16)
		FROM messages_fts f
		JOIN messages m ON m.rowid = f.rowid
		WHERE messages_fts MATCH ?`
	args := []any{query}
	if conversationID > 0 {
		q += " AND m.conversation_id = ?"
		args = append(args, conversationID)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var ts int64
		if err := rows.Scan(
			&h.ConversationID, &h.Message.ID, &h.Message.User.ID,
			&h.Message.User.Name, &h.Message.Content, &ts, &h.Snippet,
		); err != nil {
			return nil, err
		}
		h.Message.Timestamp = time.UnixMilli(ts).UTC()
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
