package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MarkLoggedIn upserts the session flag for username: logged in, last login now
func (s *Store) MarkLoggedIn(ctx context.Context, accountID, username string) error {
	_, err := s.exec(ctx, `
		INSERT INTO sessions (user_id, username, logged_in, last_login)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			user_id = excluded.user_id,
			logged_in = excluded.logged_in,
			last_login = excluded.last_login`,
		accountID, username, true, s.stamp())
	if err != nil {
		return fmt.Errorf("failed to mark logged in: %w", err)
	}
	return nil
}

// MarkLoggedOut clears the logged-in flag. Unknown usernames are not an error.
func (s *Store) MarkLoggedOut(ctx context.Context, username string) error {
	if _, err := s.exec(ctx, `UPDATE sessions SET logged_in = ? WHERE username = ?`, false, username); err != nil {
		return fmt.Errorf("failed to mark logged out: %w", err)
	}
	return nil
}

// ActiveUsername returns the most recently logged-in username whose flag is
// still set, or ErrNotFound when nobody is logged in.
func (s *Store) ActiveUsername(ctx context.Context) (string, error) {
	var username string
	err := s.queryRow(ctx, `
		SELECT username FROM sessions
		WHERE logged_in = ?
		ORDER BY last_login DESC, session_id DESC
		LIMIT 1`, true).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get active user: %w", err)
	}
	return username, nil
}

// LoggedInUsernames lists every username whose flag is set, most recent first
func (s *Store) LoggedInUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `
		SELECT username FROM sessions
		WHERE logged_in = ?
		ORDER BY last_login DESC, session_id DESC`, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list logged in users: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
