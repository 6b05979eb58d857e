// Package speech turns assistant replies into audio through an
// OpenAI-compatible text-to-speech endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"jarvis/internal/logging"
)

// ErrEmptyText is returned when there is nothing to synthesize
var ErrEmptyText = errors.New("no text to synthesize")

// Synthesizer converts text to encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Config configures the HTTP synthesizer
type Config struct {
	Endpoint string // base URL, e.g. https://api.openai.com/v1
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client calls POST <endpoint>/audio/speech
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logging.Logger
}

// NewClient creates a speech client
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns mp3 audio for text
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	start := time.Now()
	body, err := json.Marshal(speechRequest{Model: c.cfg.Model, Input: text, Voice: voice, ResponseFormat: "mp3"})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Error("speech request failed: %v", err)
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"bytes":      len(audio),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("speech synthesized")
	return audio, nil
}

// Service synthesizes replies and keeps the latest one on disk
type Service struct {
	synth      Synthesizer
	voice      string
	outputPath string
	logger     *logging.Logger

	mu sync.Mutex
}

// NewService creates a speech service writing to outputPath
func NewService(synth Synthesizer, voice, outputPath string, logger *logging.Logger) *Service {
	return &Service{synth: synth, voice: voice, outputPath: outputPath, logger: logger}
}

// Speak synthesizes text, replaces the output file and returns the audio
func (s *Service) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	audio, err := s.synth.Synthesize(ctx, text, s.voice)
	if err != nil {
		return nil, err
	}

	if s.outputPath != "" {
		s.mu.Lock()
		err := writeAtomic(s.outputPath, audio)
		s.mu.Unlock()
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"path":  s.outputPath,
				"error": err.Error(),
			}).Warn("failed to write speech file")
		}
	}
	return audio, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".speech-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move speech file into place: %w", err)
	}
	return nil
}
