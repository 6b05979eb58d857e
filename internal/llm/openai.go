package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"jarvis/internal/logging"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API
// (OpenAI, Groq, vLLM, LM Studio).
type OpenAIProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *logging.Logger
}

// NewOpenAIProvider creates a new OpenAI-compatible provider. Endpoint is the
// API base, e.g. https://api.groq.com/openai/v1.
func NewOpenAIProvider(cfg Config, logger *logging.Logger) *OpenAIProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Stream generates a chat completion and streams it to the writer
func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error) {
	c := newCall("openai", p.model, len(messages), p.logger, w)

	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": messages,
		"stream":   true,
	}
	if opts.MaxTokens > 0 {
		reqBody["max_tokens"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		reqBody["top_p"] = opts.TopP
	}
	if len(opts.Stop) > 0 {
		reqBody["stop"] = opts.Stop
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.fail("failed to marshal stream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", c.fail("failed to create stream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", c.fail("stream request failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	err = sseData(resp.Body, func(data string) (bool, error) {
		if data == "[DONE]" {
			return true, nil
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, nil
		}
		if len(chunk.Choices) == 0 {
			return false, nil
		}
		return false, c.emit(chunk.Choices[0].Delta.Content)
	})
	if err != nil {
		return c.text.String(), c.fail("stream interrupted", err)
	}

	return c.done(), nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsLocal returns false; OpenAI-compatible endpoints are treated as remote
func (p *OpenAIProvider) IsLocal() bool {
	return false
}
