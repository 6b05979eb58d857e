package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/llm"
	"jarvis/internal/logging"
)

// ChatFailureReply is returned when the completion service fails
const ChatFailureReply = "❌ Sorry, something went wrong while processing your request."

var chatOptions = llm.Options{MaxTokens: 1024, Temperature: 0.7, TopP: 1}

// Chat answers general conversation with the completion service
type Chat struct {
	provider llm.Provider
	persona  Persona
	now      func() time.Time
	logger   *logging.Logger
}

// NewChat creates the general chat handler
func NewChat(provider llm.Provider, persona Persona, logger *logging.Logger) *Chat {
	return &Chat{provider: provider, persona: persona, now: time.Now, logger: logger}
}

func (c *Chat) systemPrompt(username string) string {
	return fmt.Sprintf("Hello, I am %s, You are a very accurate and advanced AI chatbot named %s which also has real-time up-to-date information from the internet.\n"+
		"*** Do not tell time until I ask, do not talk too much, just answer the question.***\n"+
		"*** Reply in only English, even if the question is in Hindi, reply in English.***\n"+
		"*** Do not provide notes in the output, just answer the question and never mention your training data. ***\n",
		c.persona.user(username), c.persona.AssistantName)
}

// Handle answers the full utterance
func (c *Chat) Handle(ctx context.Context, req Request) (string, error) {
	query := req.Utterance
	if query == "" {
		query = req.Task
	}

	messages := []llm.Message{
		{Role: "system", Content: c.systemPrompt(req.Username)},
		{Role: "system", Content: realtimeInfo(c.now())},
		{Role: "user", Content: query},
	}

	start := time.Now()
	answer, err := llm.Complete(ctx, c.provider, messages, chatOptions)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"username":   req.Username,
			"latency_ms": time.Since(start).Milliseconds(),
		}).Error("chat completion failed: %v", err)
		return ChatFailureReply, nil
	}
	return removeBlankLines(strings.ReplaceAll(answer, "</s>", "")), nil
}
