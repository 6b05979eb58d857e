package store

import (
	"context"
	"fmt"
)

// AppendConversation records one exchange. Entries are never updated; they
// only disappear when their account is deleted.
func (s *Store) AppendConversation(ctx context.Context, accountID, username, message, response string) error {
	_, err := s.exec(ctx, `
		INSERT INTO chats (user_id, username, message, response, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		accountID, username, message, response, s.stamp())
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// ConversationHistory returns every exchange for username, oldest first.
// Entries with equal timestamps keep insertion order.
func (s *Store) ConversationHistory(ctx context.Context, username string) ([]ConversationEntry, error) {
	rows, err := s.query(ctx, `
		SELECT id, username, message, response, timestamp
		FROM chats
		WHERE username = ?
		ORDER BY timestamp ASC, id ASC`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []ConversationEntry{}
	for rows.Next() {
		var e ConversationEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Message, &e.Response, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}
