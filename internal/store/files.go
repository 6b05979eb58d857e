package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveGeneratedFile stores content written for an account
func (s *Store) SaveGeneratedFile(ctx context.Context, accountID, filename, content string) error {
	_, err := s.exec(ctx, `
		INSERT INTO user_files (user_id, filename, content, created_at)
		VALUES (?, ?, ?, ?)`,
		accountID, filename, content, s.stamp())
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// GetGeneratedFile returns the newest file with that name owned by accountID
func (s *Store) GetGeneratedFile(ctx context.Context, accountID, filename string) (*GeneratedFile, error) {
	var f GeneratedFile
	err := s.queryRow(ctx, `
		SELECT id, user_id, filename, content, created_at
		FROM user_files
		WHERE user_id = ? AND filename = ?
		ORDER BY id DESC
		LIMIT 1`, accountID, filename).
		Scan(&f.ID, &f.AccountID, &f.Filename, &f.Content, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}

// ListGeneratedFiles returns the account's files, newest first, without content
func (s *Store) ListGeneratedFiles(ctx context.Context, accountID string) ([]GeneratedFile, error) {
	rows, err := s.query(ctx, `
		SELECT id, user_id, filename, created_at
		FROM user_files
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := []GeneratedFile{}
	for rows.Next() {
		var f GeneratedFile
		if err := rows.Scan(&f.ID, &f.AccountID, &f.Filename, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}
	return files, nil
}
