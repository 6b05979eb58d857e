package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateSessionToken stores a bearer token for an identity. accountID is
// empty for admin tokens.
func (s *Store) CreateSessionToken(ctx context.Context, t SessionToken) error {
	var accountID sql.NullString
	if t.AccountID != "" {
		accountID = sql.NullString{String: t.AccountID, Valid: true}
	}
	_, err := s.exec(ctx, `
		INSERT INTO session_tokens (token, user_id, username, is_admin, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Token, accountID, t.Username, t.IsAdmin, s.stamp(), storedTime(t.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to create session token: %w", err)
	}
	return nil
}

// GetSessionToken returns the token, or nil when it does not exist or has expired
func (s *Store) GetSessionToken(ctx context.Context, token string) (*SessionToken, error) {
	var st SessionToken
	var accountID sql.NullString
	err := s.queryRow(ctx, `
		SELECT token, user_id, username, is_admin, created_at, expires_at
		FROM session_tokens
		WHERE token = ?`, token).
		Scan(&st.Token, &accountID, &st.Username, &st.IsAdmin, &st.CreatedAt, &st.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session token: %w", err)
	}
	st.AccountID = accountID.String

	if !s.now().Before(st.ExpiresAt) {
		return nil, nil
	}
	return &st, nil
}

// DeleteSessionToken removes a token; unknown tokens are ignored
func (s *Store) DeleteSessionToken(ctx context.Context, token string) error {
	if _, err := s.exec(ctx, `DELETE FROM session_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens and reports how many were removed
func (s *Store) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM session_tokens WHERE expires_at <= ?`, s.stamp())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
