// Package provider builds the completion service clients named in the
// configuration: one for answering and one for intent classification.
package provider

import (
	"fmt"

	"jarvis/internal/config"
	"jarvis/internal/llm"
	"jarvis/internal/logging"
)

// Manager holds the chat and classifier providers
type Manager struct {
	chat       llm.Provider
	classifier llm.Provider
	cfg        *config.Config
	shared     bool // classifier reuses the chat provider
}

func llmConfig(p config.ProviderConfig) llm.Config {
	return llm.Config{
		Type:     p.Type,
		Endpoint: p.Endpoint,
		APIKey:   p.APIKey,
		Model:    p.Model,
		Timeout:  p.Timeout(),
	}
}

// NewManager initializes both providers. The chat provider is required; the
// classifier falls back to the chat provider when it is not configured or
// cannot be initialized.
func NewManager(cfg *config.Config, logger *logging.Logger) (*Manager, error) {
	if cfg.ChatProvider.Type == "" {
		return nil, fmt.Errorf("chat provider must be configured")
	}

	chat, err := llm.NewProvider(llmConfig(cfg.ChatProvider), logger.Named("llm.chat"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	m := &Manager{chat: chat, cfg: cfg}
	logger.Info("Chat provider initialized: %s (%s)", cfg.ChatProvider.Type, cfg.ChatProvider.Model)

	if cfg.ClassifierProvider.Type == "" {
		m.classifier, m.shared = chat, true
		logger.Info("Classifier provider not configured, using chat provider")
		return m, nil
	}

	classifier, err := llm.NewProvider(llmConfig(cfg.ClassifierProvider), logger.Named("llm.classifier"))
	if err != nil {
		logger.Warn("Failed to initialize classifier provider, using chat provider: %v", err)
		m.classifier, m.shared = chat, true
		return m, nil
	}
	m.classifier = classifier
	logger.Info("Classifier provider initialized: %s (%s)", cfg.ClassifierProvider.Type, cfg.ClassifierProvider.Model)
	return m, nil
}

// Chat returns the provider used by the answering capabilities
func (m *Manager) Chat() llm.Provider {
	return m.chat
}

// Classifier returns the provider used for intent classification
func (m *Manager) Classifier() llm.Provider {
	return m.classifier
}

// Describe returns a human-readable summary such as "openai/llama3-70b-8192"
func (m *Manager) Describe() string {
	chat := fmt.Sprintf("%s/%s", m.chat.Name(), m.cfg.ChatProvider.Model)
	if m.shared {
		return chat
	}
	return fmt.Sprintf("%s, classifier %s/%s", chat, m.classifier.Name(), m.cfg.ClassifierProvider.Model)
}
