// Package llm holds clients for the completion services behind the chat,
// content writer, realtime answering and intent classification features.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"jarvis/internal/logging"
)

// Provider streams a chat completion
type Provider interface {
	// Stream writes completion chunks to w as they arrive and returns the
	// concatenated text
	Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error)

	// Name returns the provider name (e.g., "ollama", "openai", "anthropic")
	Name() string

	// IsLocal returns true if the provider runs locally
	IsLocal() bool
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Options are per-call sampling parameters. Zero values leave the service default.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
}

// Config holds provider configuration
type Config struct {
	Type     string // "openai" (any OpenAI-compatible API), "ollama", "anthropic"
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewProvider creates a provider for cfg.Type
func NewProvider(cfg Config, logger *logging.Logger) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(cfg, logger), nil
	case "ollama":
		return NewOllamaProvider(cfg, logger), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		return NewAnthropicProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// Complete runs a completion and returns the whole text
func Complete(ctx context.Context, p Provider, messages []Message, opts Options) (string, error) {
	return p.Stream(ctx, messages, opts, io.Discard)
}
