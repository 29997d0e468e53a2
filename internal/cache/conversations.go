package cache

import (
	"time"

	"github.com/hobbynet/hobnet/internal/api"
)

// SaveConversation inserts or refreshes a conversation row.
func (db *DB) SaveConversation(conv api.Group) error {
	_, err := db.Exec(`
		INSERT INTO conversations (id, name, is_dm, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_dm = excluded.is_dm`,
		conv.ID, conv.Name, conv.IsDM, conv.CreatedAt.UnixMilli())
	return err
}

// Conversations returns every cached conversation, newest first.
func (db *DB) Conversations() ([]api.Group, error) {
	rows, err := db.Query(`
		SELECT id, name, is_dm, created_at
		FROM conversations
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []api.Group
	for rows.Next() {
		var c api.Group
		var isDM int
		var createdMs int64
		if err := rows.Scan(&c.ID, &c.Name, &isDM, &createdMs); err != nil {
			return nil, err
		}
		c.IsDM = isDM != 0
		c.CreatedAt = time.UnixMilli(createdMs).UTC()
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
