package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"jarvis/internal/logging"
)

// OllamaProvider implements the Provider interface for a local Ollama server
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *logging.Logger
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(cfg Config, logger *logging.Logger) *OllamaProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &OllamaProvider{
		endpoint: endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Stream generates a chat completion and streams it to the writer. Ollama
// answers with one JSON object per line.
func (p *OllamaProvider) Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error) {
	c := newCall("ollama", p.model, len(messages), p.logger, w)

	options := map[string]interface{}{}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		options["top_p"] = opts.TopP
	}
	if len(opts.Stop) > 0 {
		options["stop"] = opts.Stop
	}
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": messages,
		"stream":   true,
	}
	if len(options) > 0 {
		reqBody["options"] = options
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.fail("failed to marshal stream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", c.fail("failed to create stream request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", c.fail("stream request failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Done  bool   `json:"done"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return c.text.String(), c.fail("stream reported error", fmt.Errorf("%s", chunk.Error))
		}
		if err := c.emit(chunk.Message.Content); err != nil {
			return c.text.String(), c.fail("stream interrupted", err)
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return c.text.String(), c.fail("stream interrupted", err)
	}

	return c.done(), nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsLocal returns true since Ollama runs on this machine
func (p *OllamaProvider) IsLocal() bool {
	return true
}
