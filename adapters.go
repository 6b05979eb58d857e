package main

import (
	"context"
	"time"

	"jarvis/internal/api"
	"jarvis/internal/capability"
	"jarvis/internal/config"
	"jarvis/internal/intent"
	"jarvis/internal/logging"
	"jarvis/internal/notify"
	"jarvis/internal/skills"
	"jarvis/internal/speech"
)

// notifierFor sends OTP mail over SMTP when mail is configured and only logs
// it otherwise
func notifierFor(cfg config.MailConfig, logger *logging.Logger) notify.Sender {
	if !cfg.Enabled() {
		logger.Warn("Mail not configured, OTP codes will only be logged")
		return notify.NewLogSender(logger.Named("notify"))
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  30 * time.Second,
	}, logger.Named("notify"))
}

// speakerFor returns a nil Speaker (so /speak answers 503) when no speech
// API key is configured
func speakerFor(cfg config.SpeechConfig, logger *logging.Logger) api.Speaker {
	if cfg.APIKey == "" {
		logger.Info("Speech API key not set, text-to-speech disabled")
		return nil
	}
	client := speech.NewClient(speech.Config{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, logger.Named("speech"))
	return speech.NewService(client, cfg.Voice, cfg.OutputPath, logger.Named("speech"))
}

// skillMatcherFor returns nil when skills are disabled, which makes every
// automation command unsupported
func skillMatcherFor(cfg config.SkillsConfig, registry *skills.Registry) capability.SkillMatcher {
	if !cfg.Enabled || registry == nil {
		return nil
	}
	return registry
}

// reloadSkills adapts Registry.Reload to a watcher callback
func reloadSkills(registry *skills.Registry, logger *logging.Logger) func() {
	return func() {
		if err := registry.Reload(); err != nil {
			logger.Warn("Failed to reload skills: %v", err)
			return
		}
		logger.Info("Skills reloaded: %d available", len(registry.List()))
	}
}

// loadPrompt reads the classifier prompt from path, falling back to the
// built-in prompt when path is empty or unreadable
func loadPrompt(path string, logger *logging.Logger) intent.Prompt {
	if path == "" {
		return intent.DefaultPrompt()
	}
	p, err := intent.LoadPrompt(path)
	if err != nil {
		logger.Warn("Failed to load classifier prompt %s, using built-in prompt: %v", path, err)
		return intent.DefaultPrompt()
	}
	return p
}

// reloadPrompt swaps the classifier prompt when the prompt file changes. A
// broken edit keeps the current prompt.
func reloadPrompt(classifier *intent.Classifier, path string, logger *logging.Logger) func() {
	return func() {
		p, err := intent.LoadPrompt(path)
		if err != nil {
			logger.Warn("Classifier prompt not reloaded: %v", err)
			return
		}
		classifier.SetPrompt(p)
		logger.Info("Classifier prompt reloaded from %s", path)
	}
}

type tokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// cleanupTokens removes expired session tokens every interval until ctx is done
func cleanupTokens(ctx context.Context, st tokenCleaner, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.CleanupExpiredTokens(ctx)
			if err != nil {
				logger.Warn("Failed to clean up expired tokens: %v", err)
				continue
			}
			if n > 0 {
				logger.Debug("Removed %d expired session tokens", n)
			}
		}
	}
}
