package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jarvis/internal/logging"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicProvider implements the Provider interface for the Anthropic Messages API
type AnthropicProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *logging.Logger
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg Config, logger *logging.Logger) *AnthropicProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com"
	}
	return &AnthropicProvider{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Stream generates a chat completion and streams it to the writer. System
// messages are folded into the top-level system prompt.
func (p *AnthropicProvider) Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error) {
	c := newCall("anthropic", p.model, len(messages), p.logger, w)

	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	reqBody := map[string]interface{}{
		"model":      p.model,
		"messages":   turns,
		"max_tokens": maxTokens,
		"stream":     true,
	}
	if len(system) > 0 {
		reqBody["system"] = strings.Join(system, "\n\n")
	}
	if opts.Temperature > 0 {
		reqBody["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		reqBody["top_p"] = opts.TopP
	}
	if len(opts.Stop) > 0 {
		reqBody["stop_sequences"] = opts.Stop
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.fail("failed to marshal stream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", c.fail("failed to create stream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", c.fail("stream request failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	err = sseData(resp.Body, func(data string) (bool, error) {
		var event struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return false, nil
		}
		switch event.Type {
		case "content_block_delta":
			return false, c.emit(event.Delta.Text)
		case "message_stop":
			return true, nil
		case "error":
			return true, fmt.Errorf("%s", event.Error.Message)
		}
		return false, nil
	})
	if err != nil {
		return c.text.String(), c.fail("stream interrupted", err)
	}

	return c.done(), nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsLocal returns false since Anthropic is a cloud service
func (p *AnthropicProvider) IsLocal() bool {
	return false
}
