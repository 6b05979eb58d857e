package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertOTP stores code as the single live reset code for username,
// replacing any earlier one.
func (s *Store) UpsertOTP(ctx context.Context, username, code string, issuedAt time.Time) error {
	_, err := s.exec(ctx, `
		INSERT INTO otp_reset (username, otp, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			otp = excluded.otp,
			created_at = excluded.created_at`,
		username, code, storedTime(issuedAt))
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// GetOTP returns the live reset code for username
func (s *Store) GetOTP(ctx context.Context, username string) (*OTPRecord, error) {
	var r OTPRecord
	err := s.queryRow(ctx, `SELECT username, otp, created_at FROM otp_reset WHERE username = ?`, username).
		Scan(&r.Username, &r.Code, &r.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("otp %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}
	return &r, nil
}

// DeleteOTP removes the reset code for username, if any
func (s *Store) DeleteOTP(ctx context.Context, username string) error {
	if _, err := s.exec(ctx, `DELETE FROM otp_reset WHERE username = ?`, username); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
