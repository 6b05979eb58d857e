package intent

import (
	"context"
	"sync"
	"time"

	"jarvis/internal/llm"
	"jarvis/internal/logging"
)

// Classifier maps an utterance to sub-intents. It is safe for concurrent use;
// the prompt can be swapped while requests are in flight.
type Classifier struct {
	provider    llm.Provider
	maxAttempts int
	timeout     time.Duration
	logger      *logging.Logger

	mu     sync.RWMutex
	prompt Prompt
}

// NewClassifier creates a Classifier. maxAttempts bounds retries of
// placeholder answers; timeout bounds the whole classification.
func NewClassifier(provider llm.Provider, prompt Prompt, maxAttempts int, timeout time.Duration, logger *logging.Logger) *Classifier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		provider:    provider,
		prompt:      prompt,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		logger:      logger,
	}
}

// SetPrompt replaces the prompt used by later classifications
func (c *Classifier) SetPrompt(p Prompt) {
	c.mu.Lock()
	c.prompt = p
	c.mu.Unlock()
}

// Prompt returns the prompt currently in use
func (c *Classifier) Prompt() Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompt
}

// Classify returns the tagged sub-intents of utterance. The result is never
// empty: a failed completion yields ["error <message>"], and an answer with
// no usable tags, or one still carrying the "(query)" placeholder after the
// last attempt, yields ["general <utterance>"].
func (c *Classifier) Classify(ctx context.Context, utterance string) []string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := c.Prompt().Messages(utterance)
	log := c.logger.WithContext("utterance_length", len(utterance))
	fallback := []string{TagGeneral + " " + utterance}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		raw, err := llm.Complete(ctx, c.provider, messages, llm.Options{Temperature: 0.7})
		if err != nil {
			log.WithContext("attempt", attempt).Error("classification failed: %v", err)
			return []string{TagError + " " + err.Error()}
		}

		tasks := Parse(raw)
		if hasPlaceholder(tasks) {
			log.WithContext("attempt", attempt).Warn("classifier echoed placeholder, retrying")
			continue
		}
		if len(tasks) == 0 {
			log.Debug("no known tags in classification, treating as general")
			return fallback
		}

		log.WithFields(map[string]interface{}{"attempt": attempt, "tasks": len(tasks)}).Debug("classified")
		return tasks
	}

	log.WithContext("attempts", c.maxAttempts).Warn("classifier retries exhausted, treating as general")
	return fallback
}
