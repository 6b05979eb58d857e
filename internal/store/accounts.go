package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const accountColumns = `id, username, email, password, is_admin, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account together with its session flag
// (logged in, last login now) in one transaction.
func (s *Store) CreateAccount(ctx context.Context, username, email, passwordHash string) (*Account, error) {
	now := s.stamp()
	a := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO users (id, username, password, email, created_at, is_admin)
			VALUES (?, ?, ?, ?, ?, ?)`),
			a.ID, a.Username, a.PasswordHash, a.Email, now, false)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", uniqueViolation(err))
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO sessions (user_id, username, logged_in, last_login)
			VALUES (?, ?, ?, ?)`),
			a.ID, a.Username, true, now)
		if err != nil {
			return fmt.Errorf("failed to create session flag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) getAccount(ctx context.Context, where string, arg interface{}) (*Account, error) {
	row := s.queryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE `+where+` = ?`, arg)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return a, nil
}

// GetAccountByUsername looks an account up by its exact username
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	return s.getAccount(ctx, "username", username)
}

// GetAccountByEmail looks an account up by its exact email
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.getAccount(ctx, "email", email)
}

// UpdatePasswordHash overwrites the stored hash for username
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	res, err := s.exec(ctx, `UPDATE users SET password = ? WHERE username = ?`, hash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return nil
}

// ListAccounts returns every account, newest first, with its session flag state
func (s *Store) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	rows, err := s.query(ctx, `
		SELECT u.id, u.username, u.email, u.created_at, s.logged_in, s.last_login
		FROM users u
		LEFT JOIN sessions s ON s.username = u.username
		ORDER BY u.created_at DESC, u.username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	accounts := []AccountSummary{}
	for rows.Next() {
		var a AccountSummary
		var loggedIn sql.NullBool
		var lastLogin sql.NullTime
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.CreatedAt, &loggedIn, &lastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		a.LoggedIn = loggedIn.Valid && loggedIn.Bool
		if lastLogin.Valid {
			t := lastLogin.Time
			a.LastLogin = &t
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes the account and everything keyed to it (chats, OTP
// record, session flag, generated files, session tokens) in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, username string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM users WHERE username = ?`), username).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		steps := []struct {
			query string
			arg   string
		}{
			{`DELETE FROM chats WHERE user_id = ?`, id},
			{`DELETE FROM otp_reset WHERE username = ?`, username},
			{`DELETE FROM sessions WHERE username = ?`, username},
			{`DELETE FROM user_files WHERE user_id = ?`, id},
			{`DELETE FROM session_tokens WHERE user_id = ?`, id},
			{`DELETE FROM users WHERE id = ?`, id},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, s.rebind(step.query), step.arg); err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		return nil
	})
}
