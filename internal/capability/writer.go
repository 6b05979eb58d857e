package capability

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"jarvis/internal/llm"
	"jarvis/internal/logging"
	"jarvis/internal/store"
)

// ErrAccountNotFound means the caller has no account to own the file
var ErrAccountNotFound = errors.New("account not found")

const maxFilenamePrefix = 80

var (
	writerOptions  = llm.Options{MaxTokens: 2048, Temperature: 0.7, TopP: 1}
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// FileStore is the persistence the content writer needs
type FileStore interface {
	GetAccountByUsername(ctx context.Context, username string) (*store.Account, error)
	SaveGeneratedFile(ctx context.Context, accountID, filename, content string) error
}

// Writer generates documents and saves them as downloadable files
type Writer struct {
	provider llm.Provider
	files    FileStore
	now      func() time.Time
	logger   *logging.Logger
}

// NewWriter creates the content writer handler
func NewWriter(provider llm.Provider, files FileStore, logger *logging.Logger) *Writer {
	return &Writer{provider: provider, files: files, now: time.Now, logger: logger}
}

// Filename derives the stored filename from the prompt and generation time
func Filename(prompt string, at time.Time) string {
	safe := unsafeFilename.ReplaceAllString(strings.ToLower(prompt), "_")
	if len(safe) > maxFilenamePrefix {
		safe = safe[:maxFilenamePrefix]
	}
	return fmt.Sprintf("%s_%s.txt", safe, at.Format("20060102150405"))
}

// Handle writes content for req.Task. An unknown account is returned as
// ErrAccountNotFound and nothing is generated or saved.
func (w *Writer) Handle(ctx context.Context, req Request) (string, error) {
	logger := w.logger.WithContext("username", req.Username)
	prompt := strings.TrimSpace(req.Task)

	account, err := w.files.GetAccountByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve account: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf("Hello, I am %s. You're a content writer. You have to write content like letters, codes, applications, essays, notes, songs, poems etc.", req.Username)},
		{Role: "user", Content: prompt},
	}

	start := time.Now()
	content, err := llm.Complete(ctx, w.provider, messages, writerOptions)
	if err != nil {
		logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Error("content generation failed: %v", err)
		return fmt.Sprintf("❌ Error generating content: %v", err), nil
	}
	content = strings.ReplaceAll(content, "</s>", "")

	filename := Filename(prompt, w.now())
	if err := w.files.SaveGeneratedFile(ctx, account.ID, filename, content); err != nil {
		return "", fmt.Errorf("failed to save generated file: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"filename":   filename,
		"bytes":      len(content),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("content generated")
	return fmt.Sprintf("✅ Content generated! <a href='/download/%s' target='_blank'>Download here</a>", filename), nil
}
